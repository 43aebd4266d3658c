package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-maker/internal/faults"
	"video-maker/internal/logger"
	"video-maker/internal/media"
	"video-maker/internal/tts"
)

// edgeTTSTimeout bounds one edge-tts invocation.
const edgeTTSTimeout = 60 * time.Second

// WAVConverter converts the edge-tts MP3 output to the pipeline's WAV.
type WAVConverter interface {
	ConvertToWAV(ctx context.Context, inputPath, outputPath string) error
}

// EdgeTTSService handles text-to-speech using the edge-tts command line tool
// (Microsoft Edge's online voices, no key required).
type EdgeTTSService struct {
	path    string
	ffmpeg  WAVConverter
	runner  media.Runner
	timeout time.Duration
}

// NewEdgeTTSService creates an edge-tts service. An empty path uses edge-tts
// from PATH or a common install location.
func NewEdgeTTSService(path string, ffmpeg WAVConverter) *EdgeTTSService {
	if path == "" {
		path, _ = media.FindExecutable("edge-tts")
	}
	return &EdgeTTSService{
		path:    path,
		ffmpeg:  ffmpeg,
		runner:  media.ExecRunner{},
		timeout: edgeTTSTimeout,
	}
}

// WithRunner replaces the command runner.
func (s *EdgeTTSService) WithRunner(r media.Runner) *EdgeTTSService {
	s.runner = r
	return s
}

// Name implements tts.Synthesizer.
func (s *EdgeTTSService) Name() string { return string(tts.ProviderEdgeTTS) }

// CheckInstalled verifies edge-tts is installed
func (s *EdgeTTSService) CheckInstalled(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, media.NewCommand(s.path).Arg("--version")); err != nil {
		return faults.Wrap(faults.ErrToolUnavailable, "check tool", s.path,
			fmt.Errorf("edge-tts not installed, install with: pip install edge-tts: %w", err))
	}
	return nil
}

// Synthesize writes the narration to a temp file (so no text ever reaches a
// command line), renders MP3 with edge-tts and converts it to req.OutputPath.
func (s *EdgeTTSService) Synthesize(ctx context.Context, req tts.Request) error {
	if err := tts.Validate(req); err != nil {
		return err
	}
	output, err := tts.PrepareOutput(req.OutputPath)
	if err != nil {
		return err
	}

	logger.Info("Edge TTS: voice=%s", req.Voice)

	textFile, err := os.CreateTemp(filepath.Dir(output), "edge_tts_text_*.txt")
	if err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "create temp file", output, err)
	}
	textPath := textFile.Name()
	defer os.Remove(textPath)

	if _, err := textFile.WriteString(req.Text); err != nil {
		textFile.Close()
		return faults.Wrap(faults.ErrSynthesisFailed, "write temp file", textPath, err)
	}
	if err := textFile.Close(); err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "write temp file", textPath, err)
	}

	mp3Path := strings.TrimSuffix(output, filepath.Ext(output)) + ".edge.mp3"
	defer os.Remove(mp3Path)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := media.NewCommand(s.path).
		Flag("--voice", strings.TrimSpace(req.Voice)).
		Flag("--file", textPath).
		Flag("--write-media", mp3Path)

	if out, err := s.runner.Run(runCtx, cmd); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return faults.Wrapf(faults.ErrSynthesisFailed, "edge-tts", output, "timeout after %s", s.timeout)
		}
		return faults.Wrap(faults.ErrSynthesisFailed, "edge-tts", output,
			fmt.Errorf("%w\nOutput: %s", err, strings.TrimSpace(string(out))))
	}

	if _, err := os.Stat(mp3Path); err != nil {
		return faults.Wrap(faults.ErrSynthesisFailed, "edge-tts output not found", mp3Path, err)
	}

	return s.ffmpeg.ConvertToWAV(ctx, mp3Path, output)
}
