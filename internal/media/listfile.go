package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListLine renders one concat demuxer entry. Backslashes become forward
// slashes on every platform; single quotes are closed, escaped and reopened.
func ListLine(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = strings.ReplaceAll(p, `'`, `'\''`)
	return fmt.Sprintf("file '%s'", p)
}

// FormatList renders the concat list for items, one line per item, in the
// order given.
func FormatList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(ListLine(item))
		b.WriteString("\n")
	}
	return b.String()
}

// WriteList resolves every item to an absolute path and writes the concat
// list to listPath.
func WriteList(listPath string, items []string) error {
	if len(items) == 0 {
		return fmt.Errorf("no input files provided")
	}
	resolved := make([]string, len(items))
	for i, item := range items {
		abs, err := filepath.Abs(item)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", item, err)
		}
		resolved[i] = abs
	}
	if err := ensureDir(listPath); err != nil {
		return err
	}
	if err := os.WriteFile(listPath, []byte(FormatList(resolved)), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	return nil
}
