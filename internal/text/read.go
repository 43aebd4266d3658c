// Package text provides text processing utilities for captions, narration and transcripts.
package text

import (
	"bytes"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"video-maker/internal/faults"
)

// Decode converts raw file bytes to a string. A UTF-8 or UTF-16 byte order
// mark selects the encoding; without one the bytes are read as UTF-8 and
// invalid sequences are dropped.
func Decode(raw []byte) (string, error) {
	if !bytes.HasPrefix(raw, bomUTF16LE) && !bytes.HasPrefix(raw, bomUTF16BE) {
		// The UTF-8 decoder would turn invalid bytes into U+FFFD.
		raw = bytes.TrimPrefix(raw, bomUTF8)
		return strings.ToValidUTF8(string(raw), ""), nil
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ReadFile reads a whole text file. Files with no non-whitespace content
// fail with faults.ErrEmptyInput.
func ReadFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", faults.Wrap(faults.ErrMissingFile, "read text", path, err)
		}
		return "", faults.Wrap(nil, "read text", path, err)
	}
	s, err := Decode(raw)
	if err != nil {
		return "", faults.Wrap(nil, "decode text", path, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", faults.Wrap(faults.ErrEmptyInput, "read text", path, nil)
	}
	return s, nil
}

// ReadLines reads a file and splits it into lines, keeping blank lines so
// callers can reserve vertical space for them.
func ReadLines(path string) ([]string, error) {
	s, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(s), nil
}

// SplitLines splits on \n, \r\n and \r. A trailing line break does not
// produce an extra empty line.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
