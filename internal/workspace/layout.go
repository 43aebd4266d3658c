// Package workspace maps segment keys to artifact paths and guards the work
// directory against concurrent runs.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"video-maker/internal/config"
	"video-maker/models"
)

// Layout resolves every artifact path of a run. Paths depend only on the
// segment key, so reruns overwrite the same files.
type Layout struct {
	WorkDir   string
	OutputDir string
	BaseName  string
	FinalName string
}

// NewLayout builds a layout from the configuration. An empty final name is
// replaced with a timestamped one.
func NewLayout(cfg *models.Config, now time.Time) Layout {
	final := cfg.Naming.FinalVideoName
	if final == "" {
		final = TimestampedName(config.DefaultFinalVideoName, now)
	}
	return Layout{
		WorkDir:   cfg.Paths.WorkDir,
		OutputDir: cfg.Paths.OutputDir,
		BaseName:  cfg.Naming.BaseVideoName,
		FinalName: final,
	}
}

// TimestampedName returns prefix-YYYYMMDD-HHMMSS.
func TimestampedName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, now.Format("20060102-150405"))
}

func (l Layout) AudioDir() string { return filepath.Join(l.WorkDir, config.AudioDirName) }
func (l Layout) ImageDir() string { return filepath.Join(l.WorkDir, config.ImageDirName) }
func (l Layout) VideoDir() string { return filepath.Join(l.WorkDir, config.VideoDirName) }
func (l Layout) SRTDir() string   { return filepath.Join(l.WorkDir, config.SRTDirName) }

// Audio is the narration waveform of key.
func (l Layout) Audio(key models.SegmentKey) string {
	return filepath.Join(l.AudioDir(), key.String()+config.WAVSuffix)
}

// MP3 is the optional narration export of key.
func (l Layout) MP3(key models.SegmentKey) string {
	return filepath.Join(l.AudioDir(), key.String()+config.MP3Suffix)
}

// Image is the composited frame of key.
func (l Layout) Image(key models.SegmentKey) string {
	return filepath.Join(l.ImageDir(), key.String()+config.PNGSuffix)
}

// FrameDir holds the replicated frames of key.
func (l Layout) FrameDir(key models.SegmentKey) string {
	return filepath.Join(l.ImageDir(), key.String())
}

// Clip is the encoded segment video of key.
func (l Layout) Clip(key models.SegmentKey) string {
	return filepath.Join(l.VideoDir(), key.String()+config.MP4Suffix)
}

// VideoList is the concatenation list for the base video.
func (l Layout) VideoList() string {
	return filepath.Join(l.VideoDir(), config.VideoListFileName)
}

// BaseVideo is the concatenated output.
func (l Layout) BaseVideo() string {
	return filepath.Join(l.OutputDir, l.BaseName+config.MP4Suffix)
}

// FinalVideo is the subtitle-burned output.
func (l Layout) FinalVideo() string {
	return filepath.Join(l.OutputDir, l.FinalName+config.MP4Suffix)
}

// RecognitionAudio is the waveform extracted from the base video.
func (l Layout) RecognitionAudio() string {
	return filepath.Join(l.AudioDir(), l.BaseName+config.WAVSuffix)
}

// Subtitles is the recovered subtitle file for name (without extension).
func (l Layout) Subtitles(name string) string {
	return filepath.Join(l.SRTDir(), name+config.SRTSuffix)
}

// MergeSubtitles picks the subtitle file for the final merge: a file named
// after the final video wins over the one recovered from the base video.
func (l Layout) MergeSubtitles() string {
	if p := l.Subtitles(l.FinalName); fileExists(p) {
		return p
	}
	return l.Subtitles(l.BaseName)
}

// AudioList is the concatenation list for the audio-only merge.
func (l Layout) AudioList() string {
	return filepath.Join(l.OutputDir, config.AudioListFileName)
}

// MergedAudio is the default audio-only merge output.
func (l Layout) MergedAudio() string {
	return filepath.Join(l.OutputDir, config.DefaultMergedAudio)
}

// LockPath is the run lock file.
func (l Layout) LockPath() string {
	return filepath.Join(l.WorkDir, config.LockFileName)
}

// Ensure creates the work and output directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.AudioDir(), l.ImageDir(), l.VideoDir(), l.SRTDir(), l.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
