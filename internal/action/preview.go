package action

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview renders what approving a would change: a line diff between the
// current file and the proposed content for file writes, the command line
// for shell commands. It reads the filesystem but never writes.
func Preview(a PendingAction) (string, error) {
	switch v := a.(type) {
	case FileWrite:
		current, err := os.ReadFile(v.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("action: preview %s: %w", v.Path, err)
		}
		return LineDiff(string(current), v.Content), nil
	case ShellCommand:
		return "$ " + v.Command, nil
	default:
		return "", fmt.Errorf("action: preview: unsupported action %T", a)
	}
}

// LineDiff returns a line-oriented diff of before and after, each line
// prefixed with "-", "+", or " ".
func LineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}
