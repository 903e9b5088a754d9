package tempdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExplicitWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, t.TempDir())

	got, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestResolveEnvFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)

	got, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestResolveSystemDefault(t *testing.T) {
	t.Setenv(EnvVar, "")

	got, err := Resolve("")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestResolveMissingDir(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
