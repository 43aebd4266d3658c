// Package manifest scans an input directory for the three per-segment file
// families and reconciles them into an ordered models.Manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"video-maker/internal/config"
	"video-maker/internal/faults"
	"video-maker/models"
)

// Pattern matches one file family by name prefix and suffix.
type Pattern struct {
	Role   models.FileRole
	Prefix string
	Suffix string
}

// Match returns the key string between prefix and suffix, or false.
func (p Pattern) Match(name string) (string, bool) {
	if !strings.HasPrefix(name, p.Prefix) || !strings.HasSuffix(name, p.Suffix) {
		return "", false
	}
	if len(name) < len(p.Prefix)+len(p.Suffix) {
		return "", false
	}
	return name[len(p.Prefix) : len(name)-len(p.Suffix)], true
}

// Builder produces manifests. It is safe for concurrent use.
type Builder struct {
	patterns []Pattern
}

// NewBuilder returns a builder for the given prefixes. Suffixes are fixed:
// backgrounds are PNG, both text families are plain text files.
func NewBuilder(naming models.Naming) *Builder {
	return &Builder{patterns: []Pattern{
		{Role: models.FileBackground, Prefix: naming.BackgroundPrefix, Suffix: config.PNGSuffix},
		{Role: models.FileText, Prefix: naming.TextPrefix, Suffix: config.TextSuffix},
		{Role: models.FileVoice, Prefix: naming.VoicePrefix, Suffix: config.TextSuffix},
	}}
}

// Patterns returns the family patterns in scan order.
func (b *Builder) Patterns() []Pattern {
	return slices.Clone(b.patterns)
}

// Build scans dir and returns the manifest, or the first validation failure.
// No partial manifest is ever returned.
func (b *Builder) Build(dir string) (*models.Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrMissingFile, "scan inputs", dir, err)
	}
	if !info.IsDir() {
		return nil, faults.Wrapf(faults.ErrMissingFile, "scan inputs", dir, "not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrMissingFile, "scan inputs", dir, err)
	}

	scan := newScan(dir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := b.classify(scan, entry.Name()); err != nil {
			return nil, err
		}
	}
	return scan.reconcile()
}

func (b *Builder) classify(s *scan, name string) error {
	for _, p := range b.patterns {
		raw, ok := p.Match(name)
		if !ok {
			continue
		}
		key, err := ParseKey(raw)
		if err != nil {
			return faults.Wrap(faults.ErrInvalidKeyFormat, "scan inputs", s.path(name), err)
		}
		if prev, dup := s.files[p.Role][key]; dup {
			return faults.Wrapf(faults.ErrInvalidKeyFormat, "scan inputs", s.path(name),
				"duplicate key %d (also %s)", key, prev)
		}
		s.files[p.Role][key] = s.path(name)
		// A name can match one family only; text and voice prefixes differ.
		return nil
	}
	return nil
}

// ParseKey accepts a non-empty run of ASCII decimal digits.
func ParseKey(raw string) (models.SegmentKey, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty sequence number")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("sequence number %q is not purely decimal", raw)
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("sequence number %q: %w", raw, err)
	}
	return models.SegmentKey(n), nil
}

type scan struct {
	dir   string
	files map[models.FileRole]map[models.SegmentKey]string
}

func newScan(dir string) *scan {
	s := &scan{dir: dir, files: make(map[models.FileRole]map[models.SegmentKey]string, 3)}
	for _, role := range models.FileRoles {
		s.files[role] = make(map[models.SegmentKey]string)
	}
	return s
}

func (s *scan) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *scan) sortedKeys(role models.FileRole) []models.SegmentKey {
	keys := make([]models.SegmentKey, 0, len(s.files[role]))
	for k := range s.files[role] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *scan) reconcile() (*models.Manifest, error) {
	bg := s.sortedKeys(models.FileBackground)
	txt := s.sortedKeys(models.FileText)
	voice := s.sortedKeys(models.FileVoice)

	if len(bg) == 0 && len(txt) == 0 && len(voice) == 0 {
		return nil, faults.Wrapf(faults.ErrEmptyInput, "scan inputs", s.dir, "no segment files found")
	}
	if len(bg) != len(txt) || len(bg) != len(voice) {
		return nil, faults.Wrapf(faults.ErrRoleCountMismatch, "reconcile inputs", s.dir,
			"%d backgrounds, %d texts, %d voices", len(bg), len(txt), len(voice))
	}
	if !slices.Equal(bg, txt) || !slices.Equal(bg, voice) {
		return nil, faults.Wrapf(faults.ErrRoleKeySetMismatch, "reconcile inputs", s.dir,
			"%s", s.describeMismatch())
	}

	records := make([]models.SegmentRecord, 0, len(bg))
	for _, key := range bg {
		records = append(records, models.SegmentRecord{
			Key:        key,
			Background: s.files[models.FileBackground][key],
			Text:       s.files[models.FileText][key],
			Voice:      s.files[models.FileVoice][key],
		})
	}
	return models.NewManifest(s.dir, records), nil
}

// describeMismatch names the keys each family is missing relative to the
// union of all keys.
func (s *scan) describeMismatch() string {
	union := make(map[models.SegmentKey]struct{})
	for _, role := range models.FileRoles {
		for k := range s.files[role] {
			union[k] = struct{}{}
		}
	}
	all := make([]models.SegmentKey, 0, len(union))
	for k := range union {
		all = append(all, k)
	}
	slices.Sort(all)

	var parts []string
	for _, role := range models.FileRoles {
		var missing []string
		for _, k := range all {
			if _, ok := s.files[role][k]; !ok {
				missing = append(missing, k.String())
			}
		}
		if len(missing) > 0 {
			parts = append(parts, fmt.Sprintf("%s missing %s", role, strings.Join(missing, ",")))
		}
	}
	return strings.Join(parts, "; ")
}
