package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	req := NewRequest("/work", "/tmp", []string{"build", "./..."})
	req.KeepAliveSeconds = 30

	b, err := EncodeRequest(req)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, b))

	body, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, body)
	assert.NotEmpty(t, req.ID)
}

func TestDecodeResponseMalformed(t *testing.T) {
	_, err := DecodeResponse([]byte("not json"))
	require.Error(t, err)
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	truncated := buf.Bytes()[:buf.Len()-2]

	_, err := ReadFrame(bytes.NewReader(truncated))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrameOversized(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestRequestIDsUnique(t *testing.T) {
	a := NewRequest("/w", "/t", nil)
	b := NewRequest("/w", "/t", nil)
	assert.NotEqual(t, a.ID, b.ID)
}
