// Package services orchestrates the video build: per-segment synthesis,
// compositing and encoding, clip assembly, transcript recovery and the
// top-level driver that runs them in order.
package services

import (
	"context"
	"time"

	"video-maker/internal/media"
)

// ProgressCallback receives stage updates from the driver.
type ProgressCallback func(stage string, percent int, message string)

// Encoder is the subset of the media toolchain the segment pipeline needs.
type Encoder interface {
	ImagesToVideo(ctx context.Context, framePattern, audioPath, outputPath string, opts media.EncodeOptions) error
	ConvertToMP3(ctx context.Context, inputPath, outputPath string) error
	Duration(ctx context.Context, mediaPath string) (time.Duration, error)
}

// Concatenator joins media files and burns subtitles.
type Concatenator interface {
	ConcatVideos(ctx context.Context, listPath, outputPath string) error
	ConcatAudio(ctx context.Context, listPath, outputPath string) error
	BurnSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error
}

// Extractor decodes a recognition waveform from a media file.
type Extractor interface {
	ExtractAudio(ctx context.Context, sourcePath, outputPath string) error
	Duration(ctx context.Context, mediaPath string) (time.Duration, error)
}

// Toolchain is everything the driver asks of the transcoder.
type Toolchain interface {
	Encoder
	Concatenator
	Extractor
	CheckInstalled(ctx context.Context) error
}

var _ Toolchain = (*media.FFmpegService)(nil)
