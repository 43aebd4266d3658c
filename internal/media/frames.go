package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"video-maker/internal/logger"
	"video-maker/internal/worker"
)

// FrameCount returns floor(whole seconds of d) * frameRate.
func FrameCount(d time.Duration, frameRate int) int {
	if d <= 0 || frameRate <= 0 {
		return 0
	}
	return int(d/time.Second) * frameRate
}

// FrameWidth returns the zero-padding width for count frames numbered from
// 0: at least minDigits, wider when the last index needs more digits.
func FrameWidth(count, minDigits int) int {
	if minDigits < 1 {
		minDigits = 1
	}
	if count <= 1 {
		return minDigits
	}
	if n := len(strconv.Itoa(count - 1)); n > minDigits {
		return n
	}
	return minDigits
}

// FrameName returns the file name of frame index at the given width.
func FrameName(index, width int) string {
	return fmt.Sprintf("%0*d.png", width, index)
}

// FramePattern returns the image2 input pattern matching FrameName.
func FramePattern(dir string, width int) string {
	return filepath.Join(dir, fmt.Sprintf("%%0%dd.png", width))
}

// ReplicateFrames writes count copies of the PNG at src into dir, named
// FrameName(0..count-1, width). Stale frames from a longer previous run are
// removed first so the encoder only sees this run's sequence.
func ReplicateFrames(ctx context.Context, src, dir string, count, width, workers int) ([]string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame source: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear frame directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}

	logger.Debug("Frames: writing %d copies of %s", count, filepath.Base(src))

	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}

	return worker.Process(ctx, indices, workers, func(ctx context.Context, job worker.Job[int]) (string, error) {
		path := filepath.Join(dir, FrameName(job.Data, width))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write frame %s: %w", path, err)
		}
		return path, nil
	}, nil)
}
