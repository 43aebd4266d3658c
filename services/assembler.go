package services

import (
	"context"
	"os"

	"video-maker/internal/faults"
	"video-maker/internal/logger"
	"video-maker/internal/media"
)

// Assembler joins segment clips into the base video and burns subtitles
// into the final video.
type Assembler struct {
	media Concatenator
	log   *logger.Logger
}

// NewAssembler returns an assembler driving m.
func NewAssembler(m Concatenator) *Assembler {
	return &Assembler{media: m, log: logger.Default()}
}

// Assemble writes the concat list for clips, in the order given, to
// listPath and stream-copies them into output.
func (a *Assembler) Assemble(ctx context.Context, clips []string, listPath, output string) error {
	if err := a.writeList(clips, listPath, "assemble clips"); err != nil {
		return err
	}
	a.log.Info("Assembler: %d clips → %s", len(clips), output)
	return a.media.ConcatVideos(ctx, listPath, output)
}

// MergeSubtitles burns srt into video, writing output. Both inputs must
// exist before the transcoder is started.
func (a *Assembler) MergeSubtitles(ctx context.Context, video, srt, output string) error {
	for _, p := range []string{video, srt} {
		if _, err := os.Stat(p); err != nil {
			return faults.Wrap(faults.ErrSubtitleMergeFailed, "merge subtitles", p, err)
		}
	}
	a.log.Info("Assembler: subtitles %s → %s", srt, output)
	return a.media.BurnSubtitles(ctx, video, srt, output)
}

// MergeAudio codec-copies files, in order, into output via listPath.
func (a *Assembler) MergeAudio(ctx context.Context, files []string, listPath, output string) error {
	if err := a.writeList(files, listPath, "merge audio"); err != nil {
		return err
	}
	a.log.Info("Assembler: %d audio files → %s", len(files), output)
	return a.media.ConcatAudio(ctx, listPath, output)
}

func (a *Assembler) writeList(items []string, listPath, operation string) error {
	if len(items) == 0 {
		return faults.Wrapf(faults.ErrEmptyInput, operation, listPath, "nothing to concatenate")
	}
	for _, item := range items {
		if _, err := os.Stat(item); err != nil {
			return faults.Wrap(faults.ErrMissingFile, operation, item, err)
		}
	}
	if err := media.WriteList(listPath, items); err != nil {
		return faults.Wrap(faults.ErrConcatenationFailed, operation, listPath, err)
	}
	return nil
}
