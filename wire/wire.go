// Package wire defines the request/response envelope exchanged with a
// worker and its framing: 4-byte big-endian length-prefixed JSON.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// MaxFrameLen bounds a single frame. A response larger than this is treated
// as a protocol violation, not buffered.
const MaxFrameLen = 8 << 20

// Request is the single request a client writes on a channel.
// KeepAliveSeconds is an advisory hint for the worker's idle shutdown; the
// client passes it through without interpreting it.
type Request struct {
	ID               string   `json:"id"`
	WorkingDir       string   `json:"workingDir"`
	TempDir          string   `json:"tempDir"`
	Args             []string `json:"args"`
	KeepAliveSeconds int      `json:"keepAliveSeconds,omitempty"`
	Debug            bool     `json:"debug,omitempty"`
}

// Response is the single response a worker writes back. A failed piece of
// work is a normal Response with a nonzero ExitCode; it is not a protocol
// failure.
type Response struct {
	ID       string `json:"id"`
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// NewRequest builds a Request with a fresh ID.
func NewRequest(workingDir, tempDir string, args []string) *Request {
	return &Request{
		ID:         uuid.NewString(),
		WorkingDir: workingDir,
		TempDir:    tempDir,
		Args:       args,
	}
}

// EncodeRequest serializes a request into one frame body.
func EncodeRequest(req *Request) ([]byte, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return b, nil
}

// DecodeResponse parses one frame body into a Response.
func DecodeResponse(b []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// WriteFrame writes one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameLen {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(body))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed frame body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameLen {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
