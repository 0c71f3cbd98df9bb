package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const rotationStamp = "20060102-150405"

// RotationConfig configures a RotatingWriter
type RotationConfig struct {
	Filename string
	MaxBytes int64
	MaxAge   int // days, 0 keeps rotated files forever
	Compress bool
}

// RotatingWriter is a log file that is renamed aside once it grows past MaxBytes
type RotatingWriter struct {
	mu       sync.Mutex
	cfg      RotationConfig
	file     *os.File
	size     int64
	now      func() time.Time
	rotation int
}

// NewRotatingWriter opens cfg.Filename for appending and removes expired rotated files
func NewRotatingWriter(cfg RotationConfig) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{cfg: cfg, now: time.Now}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.cleanup()
	return w, nil
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = file
	w.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would push the file past MaxBytes.
// A single write larger than MaxBytes still lands in one file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxBytes {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the current log file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	rotated := w.rotatedName()
	if err := os.Rename(w.cfg.Filename, rotated); err != nil {
		return err
	}
	if w.cfg.Compress {
		if err := compressFile(rotated); err != nil {
			return err
		}
	}
	w.cleanup()

	return w.open()
}

// rotatedName returns an unused name for the file being rotated aside
func (w *RotatingWriter) rotatedName() string {
	base := fmt.Sprintf("%s.%s", w.cfg.Filename, w.now().Format(rotationStamp))
	name := base
	for {
		_, errPlain := os.Stat(name)
		_, errGz := os.Stat(name + ".gz")
		if os.IsNotExist(errPlain) && os.IsNotExist(errGz) {
			return name
		}
		w.rotation++
		name = fmt.Sprintf("%s.%d", base, w.rotation)
	}
}

func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(dst)
	if _, err := io.Copy(gzw, src); err != nil {
		gzw.Close()
		dst.Close()
		return err
	}
	if err := gzw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// cleanup removes rotated files older than MaxAge days and returns how many it removed
func (w *RotatingWriter) cleanup() int {
	if w.cfg.MaxAge <= 0 {
		return 0
	}

	matches, err := filepath.Glob(w.cfg.Filename + ".*")
	if err != nil {
		return 0
	}

	cutoff := w.now().AddDate(0, 0, -w.cfg.MaxAge)
	removed := 0
	for _, path := range matches {
		if !strings.HasPrefix(filepath.Base(path), filepath.Base(w.cfg.Filename)+".") {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed
}
