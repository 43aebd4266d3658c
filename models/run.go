package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	StatusPending      RunStatus = "pending"
	StatusScanning     RunStatus = "scanning"
	StatusSegments     RunStatus = "segments"
	StatusAssembling   RunStatus = "assembling"
	StatusTranscribing RunStatus = "transcribing"
	StatusMerging      RunStatus = "merging"
	StatusCompleted    RunStatus = "completed"
	StatusFailed       RunStatus = "failed"
)

// Run tracks one invocation of the driver.
type Run struct {
	ID           string
	InputDir     string
	Status       RunStatus
	Progress     int // 0-100
	CurrentStage string
	Error        error
	CreatedAt    time.Time
	CompletedAt  *time.Time

	Segments  []SegmentArtifacts
	BaseVideo string
	Subtitles string
	Final     string
}

func NewRun(inputDir string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		InputDir:  inputDir,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

func (r *Run) SetStatus(status RunStatus, stage string, progress int) {
	r.Status = status
	r.CurrentStage = stage
	r.Progress = progress
}

// Complete marks the run finished.
func (r *Run) Complete() {
	r.Status = StatusCompleted
	r.Progress = 100
	now := time.Now()
	r.CompletedAt = &now
}

func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err
	r.CurrentStage = "Failed"
	now := time.Now()
	r.CompletedAt = &now
}

// Output returns the most downstream artifact of the run.
func (r *Run) Output() string {
	switch {
	case r.Final != "":
		return r.Final
	case r.BaseVideo != "":
		return r.BaseVideo
	case r.Subtitles != "":
		return r.Subtitles
	}
	return ""
}

// Reused counts segments whose artifacts were kept from a previous run.
func (r *Run) Reused() int {
	n := 0
	for _, s := range r.Segments {
		if s.Skipped {
			n++
		}
	}
	return n
}

func (r *Run) StatusText() string {
	switch r.Status {
	case StatusPending:
		return "Ready"
	case StatusScanning:
		return "Scanning inputs..."
	case StatusSegments:
		return "Building segments..."
	case StatusAssembling:
		return "Assembling base video..."
	case StatusTranscribing:
		return "Recovering transcript..."
	case StatusMerging:
		return "Burning subtitles..."
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		if r.Error != nil {
			return "Failed: " + r.Error.Error()
		}
		return "Failed"
	default:
		return string(r.Status)
	}
}
