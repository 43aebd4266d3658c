package models

import (
	"sort"
	"strconv"
	"time"
)

// SegmentKey is the sequence number embedded in input file names.
type SegmentKey int

func (k SegmentKey) String() string {
	return strconv.Itoa(int(k))
}

// Role selects the rendering policy of a segment.
type Role string

const (
	RoleFirst  Role = "first"
	RoleMiddle Role = "middle"
	RoleLast   Role = "last"
)

// FileRole names the three families of per-segment input files.
type FileRole string

const (
	FileBackground FileRole = "background"
	FileText       FileRole = "text"
	FileVoice      FileRole = "voice"
)

// FileRoles lists the input families in scan order.
var FileRoles = []FileRole{FileBackground, FileText, FileVoice}

// SegmentRecord holds the input files of one segment.
type SegmentRecord struct {
	Key        SegmentKey
	Background string // background image path
	Text       string // on-screen text file path
	Voice      string // narration text file path
}

// Complete reports whether all three inputs are present.
func (r SegmentRecord) Complete() bool {
	return r.Background != "" && r.Text != "" && r.Voice != ""
}

// Path returns the file of the given family.
func (r SegmentRecord) Path(role FileRole) string {
	switch role {
	case FileBackground:
		return r.Background
	case FileText:
		return r.Text
	case FileVoice:
		return r.Voice
	}
	return ""
}

// Inputs returns the three input paths in FileRoles order.
func (r SegmentRecord) Inputs() []string {
	return []string{r.Background, r.Text, r.Voice}
}

// Manifest is the validated, ordered set of segments of one run. It is
// immutable once built.
type Manifest struct {
	keys    []SegmentKey
	records map[SegmentKey]SegmentRecord
	dir     string
}

// NewManifest orders records by key. Callers are responsible for checking
// completeness; the manifest builder is the only producer.
func NewManifest(dir string, records []SegmentRecord) *Manifest {
	m := &Manifest{
		keys:    make([]SegmentKey, 0, len(records)),
		records: make(map[SegmentKey]SegmentRecord, len(records)),
		dir:     dir,
	}
	for _, r := range records {
		if _, dup := m.records[r.Key]; !dup {
			m.keys = append(m.keys, r.Key)
		}
		m.records[r.Key] = r
	}
	sort.Slice(m.keys, func(i, j int) bool { return m.keys[i] < m.keys[j] })
	return m
}

// Dir returns the scanned input directory.
func (m *Manifest) Dir() string { return m.dir }

// Len returns the number of segments.
func (m *Manifest) Len() int { return len(m.keys) }

// Keys returns the segment keys in ascending order.
func (m *Manifest) Keys() []SegmentKey {
	out := make([]SegmentKey, len(m.keys))
	copy(out, m.keys)
	return out
}

// Record returns the record stored under key.
func (m *Manifest) Record(key SegmentKey) (SegmentRecord, bool) {
	r, ok := m.records[key]
	return r, ok
}

// Records returns all records in ascending key order.
func (m *Manifest) Records() []SegmentRecord {
	out := make([]SegmentRecord, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.records[k]
	}
	return out
}

// Role classifies key against the manifest: the minimum key is first, the
// maximum is last, everything else is middle. A single-segment manifest
// classifies its only key as first.
func (m *Manifest) Role(key SegmentKey) Role {
	return Classify(key, m.keys)
}

// Classify is the pure form of Manifest.Role over an ascending key slice.
func Classify(key SegmentKey, sorted []SegmentKey) Role {
	if len(sorted) == 0 {
		return RoleMiddle
	}
	if key == sorted[0] {
		return RoleFirst
	}
	if key == sorted[len(sorted)-1] {
		return RoleLast
	}
	return RoleMiddle
}

// RoleStyle is the role-dependent rendering policy.
type RoleStyle struct {
	FontSize      int `toml:"font_size"`
	EmphasisLines int `toml:"emphasis_lines"`
}

// SegmentArtifacts are the files produced for one segment.
type SegmentArtifacts struct {
	Key      SegmentKey
	Role     Role
	Audio    string // narration waveform
	MP3      string // optional narration export
	Image    string // composited frame
	FrameDir string // replicated frames
	Frames   int
	Duration time.Duration // narration length
	Clip     string        // encoded clip, consumed by the assembler
	Skipped  bool          // reused from a previous run
}
