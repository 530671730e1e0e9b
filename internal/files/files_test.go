package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flemzord/toolgate/internal/security"
)

func TestWriter_CreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out", "report.txt")

	got, err := NewWriter().WriteFile(context.Background(), target, "done")
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got != target {
		t.Errorf("resolved path = %q, want %q", got, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "done" {
		t.Errorf("content = %q, want %q", data, "done")
	}
}

func TestWriter_Overwrites(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "a.txt")
	w := NewWriter()
	if _, err := w.WriteFile(context.Background(), target, "first version"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteFile(context.Background(), target, "v2"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "v2" {
		t.Errorf("content = %q, want %q", data, "v2")
	}
}

func TestWriter_ParentIsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewWriter().WriteFile(context.Background(), filepath.Join(blocker, "x.txt"), "x")
	if err == nil {
		t.Fatal("expected error when parent is a regular file")
	}
}

func TestReader_Read(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewReader(0).Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "# notes\n" {
		t.Errorf("Read = %q, want %q", got, "# notes\n")
	}
}

func TestReader_ReadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := filepath.Join(dir, "big.bin")
	if err := os.WriteFile(big, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewReader(32)

	if _, err := r.Read(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}
	if _, err := r.Read(big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("big file: got %v, want ErrTooLarge", err)
	}
	if _, err := r.Read(dir); err == nil {
		t.Error("directory: expected error")
	}
	if _, err := r.Read("/proc/self/environ"); !errors.Is(err, security.ErrRestrictedPath) {
		t.Errorf("/proc: got %v, want ErrRestrictedPath", err)
	}
}

func TestReader_ListDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewReader(0).ListDirectory(dir)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	want := "[FILE] README.md\n[DIR] src"
	if got != want {
		t.Errorf("ListDirectory = %q, want %q", got, want)
	}
}

func TestReader_ListDirectoryEmpty(t *testing.T) {
	t.Parallel()

	got, err := NewReader(0).ListDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if got != EmptyDirectory {
		t.Errorf("ListDirectory = %q, want %q", got, EmptyDirectory)
	}
}

func TestReader_ListDirectoryMissing(t *testing.T) {
	t.Parallel()

	_, err := NewReader(0).ListDirectory(filepath.Join(t.TempDir(), "nope"))
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("got %v, want error naming the directory", err)
	}
}
