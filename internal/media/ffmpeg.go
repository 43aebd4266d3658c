// Package media provides audio/video processing utilities using FFmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"video-maker/internal/config"
	"video-maker/internal/faults"
	"video-maker/internal/logger"
	"video-maker/internal/text"
)

// EncodeOptions controls how frame sequences become clips.
type EncodeOptions struct {
	FrameRate   int
	Resolution  string
	VideoCodec  string
	AudioCodec  string
	PixelFormat string
}

// DefaultEncodeOptions returns the stock 1080p H.264/AAC settings.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		FrameRate:   config.DefaultFrameRate,
		Resolution:  config.DefaultResolution,
		VideoCodec:  config.DefaultVideoCodec,
		AudioCodec:  config.DefaultAudioCodec,
		PixelFormat: config.DefaultPixelFormat,
	}
}

// FFmpegService wraps FFmpeg commands for audio/video processing.
type FFmpegService struct {
	ffmpegPath  string
	ffprobePath string
	cache       *DurationCache
	runner      Runner
}

// NewFFmpegService creates a new FFmpeg service with auto-detected paths.
func NewFFmpegService() *FFmpegService {
	paths := []string{
		"/opt/homebrew/bin/ffmpeg",
		"/usr/local/bin/ffmpeg",
		"/usr/bin/ffmpeg",
	}

	ffmpegPath := config.DefaultFFmpegPath
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			ffmpegPath = p
			break
		}
	}

	return NewFFmpegServiceWithPaths(ffmpegPath, "")
}

// NewFFmpegServiceWithPaths creates a service with explicit tool paths. An
// empty ffprobe path is derived from the ffmpeg path.
func NewFFmpegServiceWithPaths(ffmpegPath, ffprobePath string) *FFmpegService {
	if ffmpegPath == "" {
		ffmpegPath = config.DefaultFFmpegPath
	}
	if ffprobePath == "" {
		dir, base := filepath.Split(ffmpegPath)
		ffprobePath = dir + strings.Replace(base, "ffmpeg", "ffprobe", 1)
	}
	return &FFmpegService{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		cache:       NewDurationCache(),
		runner:      ExecRunner{},
	}
}

// WithRunner replaces the command runner.
func (s *FFmpegService) WithRunner(r Runner) *FFmpegService {
	s.runner = r
	return s
}

// CheckInstalled verifies FFmpeg and FFprobe are available.
func (s *FFmpegService) CheckInstalled(ctx context.Context) error {
	for _, tool := range []string{s.ffmpegPath, s.ffprobePath} {
		if _, err := s.runner.Run(ctx, NewCommand(tool).Arg("-version")); err != nil {
			return faults.Wrap(faults.ErrToolUnavailable, "check tool", tool, err)
		}
	}
	return nil
}

// GetPath returns the FFmpeg executable path.
func (s *FFmpegService) GetPath() string {
	return s.ffmpegPath
}

// GetProbePath returns the FFprobe executable path.
func (s *FFmpegService) GetProbePath() string {
	return s.ffprobePath
}

func (s *FFmpegService) ffmpeg() *Command {
	return NewCommand(s.ffmpegPath).Arg("-y", "-hide_banner", "-loglevel", "error")
}

// ImagesToVideo encodes a numbered frame sequence plus an optional audio
// track into one clip. framePattern is a printf pattern such as
// dir/%03d.png. The audio mapping is optional (1:a:0?) so a silent track
// still encodes.
func (s *FFmpegService) ImagesToVideo(ctx context.Context, framePattern, audioPath, outputPath string, opts EncodeOptions) error {
	logger.Info("FFmpeg: encoding frames → %s", filepath.Base(outputPath))

	if err := ensureDir(outputPath); err != nil {
		return err
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = config.DefaultFrameRate
	}

	cmd := s.ffmpeg().
		Flag("-f", "image2").
		Flag("-r", strconv.Itoa(opts.FrameRate)).
		Input(framePattern)
	if audioPath != "" {
		cmd.Input(audioPath)
	}
	cmd.Flag("-s", opts.Resolution).
		Flag("-pix_fmt", opts.PixelFormat).
		Flag("-c:v", opts.VideoCodec)
	if audioPath != "" {
		cmd.Flag("-c:a", opts.AudioCodec).
			Flag("-map", "0:v:0").
			Flag("-map", "1:a:0?")
	}
	cmd.Output(outputPath)

	return s.run(ctx, cmd, faults.ErrEncodingFailed, "encode clip", outputPath)
}

// ConcatVideos stream-copies the clips named in listPath into outputPath.
func (s *FFmpegService) ConcatVideos(ctx context.Context, listPath, outputPath string) error {
	logger.Info("FFmpeg: concatenating clips → %s", filepath.Base(outputPath))
	return s.concat(ctx, listPath, outputPath, "concatenate video")
}

// ConcatAudio codec-copies the audio files named in listPath into outputPath.
func (s *FFmpegService) ConcatAudio(ctx context.Context, listPath, outputPath string) error {
	logger.Info("FFmpeg: concatenating audio → %s", filepath.Base(outputPath))
	return s.concat(ctx, listPath, outputPath, "concatenate audio")
}

func (s *FFmpegService) concat(ctx context.Context, listPath, outputPath, operation string) error {
	if err := ensureDir(outputPath); err != nil {
		return err
	}
	cmd := s.ffmpeg().
		Flag("-f", "concat").
		Flag("-safe", "0").
		Input(listPath).
		Flag("-c", "copy").
		Output(outputPath)
	return s.run(ctx, cmd, faults.ErrConcatenationFailed, operation, outputPath)
}

// BurnSubtitles renders srtPath into videoPath, writing outputPath. The
// process runs inside the subtitle's directory so the filter only sees an
// escaped basename.
func (s *FFmpegService) BurnSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error {
	for _, p := range []string{videoPath, srtPath} {
		if _, err := os.Stat(p); err != nil {
			return faults.Wrap(faults.ErrSubtitleMergeFailed, "burn subtitles", p, err)
		}
	}

	video, err := filepath.Abs(videoPath)
	if err != nil {
		return faults.Wrap(faults.ErrSubtitleMergeFailed, "resolve path", videoPath, err)
	}
	output, err := filepath.Abs(outputPath)
	if err != nil {
		return faults.Wrap(faults.ErrSubtitleMergeFailed, "resolve path", outputPath, err)
	}
	srtDir, err := filepath.Abs(filepath.Dir(srtPath))
	if err != nil {
		return faults.Wrap(faults.ErrSubtitleMergeFailed, "resolve path", srtPath, err)
	}

	logger.Info("FFmpeg: burning subtitles %s → %s", filepath.Base(srtPath), filepath.Base(outputPath))

	if err := ensureDir(output); err != nil {
		return err
	}

	cmd := s.ffmpeg().
		Input(video).
		Flag("-vf", "subtitles="+text.EscapeFilterValue(filepath.Base(srtPath))).
		Output(output).
		InDir(srtDir)

	return s.run(ctx, cmd, faults.ErrSubtitleMergeFailed, "burn subtitles", outputPath)
}

// ExtractAudio decodes the audio of sourcePath to 16kHz mono PCM WAV for
// recognition. Accepted sources are .wav, .mp3 and .mp4.
func (s *FFmpegService) ExtractAudio(ctx context.Context, sourcePath, outputPath string) error {
	if _, err := os.Stat(sourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return faults.Wrap(faults.ErrSourceNotFound, "extract audio", sourcePath, err)
		}
		return faults.Wrap(nil, "extract audio", sourcePath, err)
	}
	if !IsRecognizable(sourcePath) {
		return faults.Wrapf(faults.ErrUnsupportedFormat, "extract audio", sourcePath,
			"only mp4, mp3 and wav are accepted")
	}

	logger.Info("FFmpeg: extracting audio → %s", filepath.Base(outputPath))

	if err := ensureDir(outputPath); err != nil {
		return err
	}

	cmd := s.ffmpeg().
		Input(sourcePath).
		Arg("-vn", "-sn", "-dn").
		Flag("-ac", "1").
		Flag("-ar", strconv.Itoa(config.AudioSampleRate16k)).
		Flag("-c:a", "pcm_s16le").
		Output(outputPath)

	return s.run(ctx, cmd, faults.ErrRecognitionFailed, "extract audio", outputPath)
}

// IsRecognizable reports whether path has an extension audio can be
// extracted from.
func IsRecognizable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case config.WAVSuffix, config.MP3Suffix, config.MP4Suffix:
		return true
	}
	return false
}

// ConvertToWAV converts an audio file to 24kHz mono WAV.
func (s *FFmpegService) ConvertToWAV(ctx context.Context, inputPath, outputPath string) error {
	if err := ensureDir(outputPath); err != nil {
		return err
	}

	cmd := s.ffmpeg().
		Input(inputPath).
		Flag("-ar", "24000").
		Flag("-ac", "1").
		Output(outputPath)

	return s.run(ctx, cmd, faults.ErrSynthesisFailed, "WAV conversion", outputPath)
}

// ConvertToMP3 exports an MP3 copy of an audio file at 192k.
func (s *FFmpegService) ConvertToMP3(ctx context.Context, inputPath, outputPath string) error {
	logger.Debug("FFmpeg: exporting mp3 → %s", filepath.Base(outputPath))

	if err := ensureDir(outputPath); err != nil {
		return err
	}

	cmd := s.ffmpeg().
		Input(inputPath).
		Flag("-b:a", config.MP3Bitrate).
		Output(outputPath)

	return s.run(ctx, cmd, faults.ErrEncodingFailed, "MP3 export", outputPath)
}

// Duration returns the duration of a media file. PCM WAV headers are read
// directly; anything else goes through ffprobe. Results are cached per path
// and modification time.
func (s *FFmpegService) Duration(ctx context.Context, mediaPath string) (time.Duration, error) {
	info, err := os.Stat(mediaPath)
	if err != nil {
		return 0, faults.Wrap(faults.ErrMissingFile, "probe duration", mediaPath, err)
	}
	key := cacheKey(mediaPath, info)
	if d, ok := s.cache.Get(key); ok {
		return d, nil
	}

	if strings.EqualFold(filepath.Ext(mediaPath), config.WAVSuffix) {
		if d, err := WAVDuration(mediaPath); err == nil {
			s.cache.Set(key, d)
			return d, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutProbe)
	defer cancel()

	cmd := NewCommand(s.ffprobePath).
		Flag("-v", "error").
		Flag("-show_entries", "format=duration").
		Flag("-of", "default=noprint_wrappers=1:nokey=1").
		Arg(mediaPath)

	output, err := s.runner.Output(ctx, cmd)
	if err != nil {
		return 0, faults.Wrap(faults.ErrProbeFailed, "ffprobe", mediaPath, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, faults.Wrap(faults.ErrProbeFailed, "parse duration", mediaPath, err)
	}

	d := time.Duration(math.Round(seconds * float64(time.Second)))
	s.cache.Set(key, d)
	return d, nil
}

// run executes an FFmpeg command and classifies any failure as kind.
func (s *FFmpegService) run(ctx context.Context, cmd *Command, kind *faults.Kind, operation, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, config.ExecTimeoutFFmpeg)
	defer cancel()

	logger.Debug("exec: %s", cmd)

	output, err := s.runner.Run(ctx, cmd)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return ctxErr
		}
		return faults.Wrap(kind, "ffmpeg "+operation, subject,
			fmt.Errorf("%w\nOutput: %s", err, strings.TrimSpace(string(output))))
	}
	return nil
}

// ensureDir creates the parent directory for a file path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
