package logger

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRotatingWriter(t *testing.T, cfg RotationConfig) *RotatingWriter {
	t.Helper()
	rw, err := NewRotatingWriter(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rw.Close() })
	return rw
}

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates file and directory", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "subdir", "scribe.log")
		newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 1024})

		assert.FileExists(t, logFile)
	})

	t.Run("continues an existing file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "scribe.log")
		require.NoError(t, os.WriteFile(logFile, []byte("previous\n"), 0644))

		rw := newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 1024})
		_, err := rw.Write([]byte("next\n"))
		require.NoError(t, err)

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Equal(t, "previous\nnext\n", string(content))
	})
}

func TestRotatingWriterRotation(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "scribe.log")
	rw := newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 100})

	line := []byte(strings.Repeat("a", 60) + "\n")
	for i := 0; i < 3; i++ {
		n, err := rw.Write(line)
		require.NoError(t, err)
		assert.Equal(t, len(line), n)
	}

	rotated, err := filepath.Glob(logFile + ".*")
	require.NoError(t, err)
	assert.Len(t, rotated, 2)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, string(line), string(content))
}

func TestRotatingWriterOversizedWrite(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "scribe.log")
	rw := newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 10})

	big := []byte(strings.Repeat("b", 50))
	_, err := rw.Write(big)
	require.NoError(t, err)

	rotated, _ := filepath.Glob(logFile + ".*")
	assert.Empty(t, rotated)
}

func TestRotatingWriterCompress(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "scribe.log")
	rw := newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 10, Compress: true})

	_, err := rw.Write([]byte("first line\n"))
	require.NoError(t, err)
	_, err = rw.Write([]byte("second line\n"))
	require.NoError(t, err)

	compressed, err := filepath.Glob(logFile + ".*.gz")
	require.NoError(t, err)
	require.Len(t, compressed, 1)

	f, err := os.Open(compressed[0])
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "first line\n", string(data))

	plain := strings.TrimSuffix(compressed[0], ".gz")
	assert.NoFileExists(t, plain)
}

func TestRotatingWriterCleanup(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "scribe.log")

	old := logFile + ".20200101-000000.gz"
	fresh := logFile + ".20991231-000000"
	unrelated := filepath.Join(dir, "other.log.20200101-000000")
	for _, path := range []string{old, fresh, unrelated} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(unrelated, past, past))

	rw := newTestRotatingWriter(t, RotationConfig{Filename: logFile, MaxBytes: 1024, MaxAge: 7})

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, unrelated)
	assert.Zero(t, rw.cleanup())
}

func TestRotatingWriterClosed(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "scribe.log")
	rw, err := NewRotatingWriter(RotationConfig{Filename: logFile, MaxBytes: 1024})
	require.NoError(t, err)

	require.NoError(t, rw.Close())
	require.NoError(t, rw.Close())

	_, err = rw.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
