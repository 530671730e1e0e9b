// Package files implements the filesystem side of the server: the writer
// used for approved file writes and the read-only pass-throughs.
package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/security"
)

// EmptyDirectory is the listing text for a directory with no entries.
const EmptyDirectory = "Empty directory"

// DefaultMaxReadSize bounds Read.
const DefaultMaxReadSize = 10 << 20

// ErrTooLarge is returned when a file exceeds the read limit.
var ErrTooLarge = errors.New("file exceeds maximum read size")

// Writer performs approved file writes. Writes are not confined to any
// directory; the approval step is the only gate.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer { return &Writer{} }

// WriteFile creates missing parent directories and writes content to path,
// replacing any existing file. It returns the absolute path written.
func (w *Writer) WriteFile(ctx context.Context, path, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil { //nolint:gosec // approved writes use regular file permissions
		return "", err
	}
	return abs, nil
}

var _ action.FileWriter = (*Writer)(nil)

// Reader serves read-only filesystem requests.
type Reader struct {
	maxSize int64
}

// NewReader creates a Reader. A maxSize <= 0 means DefaultMaxReadSize.
func NewReader(maxSize int64) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxReadSize
	}
	return &Reader{maxSize: maxSize}
}

// Read returns the content of the file at path.
func (r *Reader) Read(path string) (string, error) {
	if err := security.CheckReadPath(path); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > r.maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), r.maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListDirectory renders the entries of path one per line as "[DIR] name"
// or "[FILE] name", sorted by name, or EmptyDirectory.
func (r *Reader) ListDirectory(path string) (string, error) {
	if err := security.CheckReadPath(path); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return EmptyDirectory, nil
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		prefix := "[FILE]"
		if e.IsDir() {
			prefix = "[DIR]"
		}
		lines = append(lines, prefix+" "+e.Name())
	}
	return strings.Join(lines, "\n"), nil
}
