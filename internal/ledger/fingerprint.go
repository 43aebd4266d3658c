package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"video-maker/models"
)

// Fingerprint hashes the three input files of record together with the
// settings that shape its clip. Any change to either yields a new value.
func Fingerprint(record models.SegmentRecord, settings ...string) (string, error) {
	h := sha256.New()
	for _, path := range record.Inputs() {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}
	for _, s := range settings {
		fmt.Fprintf(h, "%d:%s;", len(s), s)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", path, err)
	}
	fmt.Fprintf(w, "%d:", info.Size())
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return nil
}
