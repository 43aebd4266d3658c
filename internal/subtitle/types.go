// Package subtitle provides cue types and SRT encoding for recovered transcripts.
package subtitle

import (
	"strings"
	"time"
)

// Cue is one timestamped subtitle entry.
type Cue struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// Duration returns how long the cue stays on screen.
func (c Cue) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// IsEmpty returns true if the cue has no visible text.
func (c Cue) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Track is an ordered list of cues.
type Track []Cue

// SingleCue builds the one-cue track used for recovered transcripts: index 1,
// spanning from zero to the full media duration.
func SingleCue(text string, duration time.Duration) Track {
	if duration < 0 {
		duration = 0
	}
	return Track{{Index: 1, StartTime: 0, EndTime: duration, Text: text}}
}

// TotalDuration returns the end time of the last cue.
func (t Track) TotalDuration() time.Duration {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].EndTime
}

// Text returns all cue text joined by line breaks.
func (t Track) Text() string {
	parts := make([]string, 0, len(t))
	for _, c := range t {
		if !c.IsEmpty() {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
