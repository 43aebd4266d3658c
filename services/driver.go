package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"video-maker/internal/config"
	"video-maker/internal/faults"
	"video-maker/internal/imaging"
	"video-maker/internal/ledger"
	"video-maker/internal/logger"
	"video-maker/internal/manifest"
	"video-maker/internal/transcription"
	"video-maker/internal/tts"
	"video-maker/internal/workspace"
	"video-maker/models"
)

// Deps are the collaborators of a Driver. Synthesizer is required when the
// voice step is on, Recognizer when the subtitles step is on. Ledger is
// optional; without it runs are not recorded and resume is off.
type Deps struct {
	Synthesizer tts.Synthesizer
	Compositor  imaging.Compositor
	Toolchain   Toolchain
	Recognizer  transcription.Recognizer
	Ledger      *ledger.Ledger
}

// Driver runs the whole build: scan, segments in key order, assembly,
// transcript recovery and the final subtitle merge. The first error stops
// the run; artifacts of completed segments stay on disk.
type Driver struct {
	cfg        *models.Config
	layout     workspace.Layout
	builder    *manifest.Builder
	segments   *SegmentPipeline
	assembler  *Assembler
	transcript *TranscriptRecovery
	ledger     *ledger.Ledger

	onProgress ProgressCallback
	log        *logger.Logger
}

// NewDriver validates that deps cover the enabled steps.
func NewDriver(cfg *models.Config, layout workspace.Layout, deps Deps) (*Driver, error) {
	if deps.Toolchain == nil {
		return nil, faults.Wrapf(faults.ErrInvalidConfig, "driver", "", "no transcoder")
	}
	if cfg.Steps.Images && deps.Compositor == nil {
		return nil, faults.Wrapf(faults.ErrInvalidConfig, "driver", "", "images step enabled without a compositor")
	}
	segments, err := NewSegmentPipeline(cfg, layout, deps.Synthesizer, deps.Compositor, deps.Toolchain)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:       cfg,
		layout:    layout,
		builder:   manifest.NewBuilder(cfg.Naming),
		segments:  segments,
		assembler: NewAssembler(deps.Toolchain),
		ledger:    deps.Ledger,
		log:       logger.Default(),
	}
	if cfg.Steps.Subtitles {
		if deps.Recognizer == nil {
			return nil, faults.Wrapf(faults.ErrInvalidConfig, "driver", "", "subtitles step enabled without a recognizer")
		}
		d.transcript = NewTranscriptRecovery(deps.Toolchain, deps.Recognizer,
			cfg.Speech.RecognitionLanguage, cfg.RecognitionTimeout())
	}
	return d, nil
}

// SetProgressCallback registers cb for stage updates.
func (d *Driver) SetProgressCallback(cb ProgressCallback) {
	d.onProgress = cb
}

func (d *Driver) progress(run *models.Run, status models.RunStatus, stage string, percent int, message string) {
	run.SetStatus(status, stage, percent)
	if d.onProgress != nil {
		d.onProgress(stage, percent, message)
	}
}

// Run executes one build under the workspace lock. The returned run is
// non-nil whenever the lock was acquired, even on failure.
func (d *Driver) Run(ctx context.Context) (*models.Run, error) {
	if err := d.layout.Ensure(); err != nil {
		return nil, err
	}
	lock, err := workspace.Acquire(d.layout.LockPath())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if d.ledger != nil {
		if n, err := d.ledger.MarkInterrupted(ctx); err != nil {
			return nil, err
		} else if n > 0 {
			d.log.Warn("Driver: marked %d interrupted runs as failed", n)
		}
	}

	run := models.NewRun(d.cfg.Paths.InputDir)
	log := d.log.With("run", run.ID)
	if d.ledger != nil {
		if err := d.ledger.StartRun(ctx, run); err != nil {
			return run, err
		}
	}

	err = d.execute(ctx, run, log)
	if err != nil {
		run.Fail(err)
		log.Error("Driver: run failed: %v", err)
	} else {
		run.Complete()
		d.progress(run, models.StatusCompleted, "Complete", config.ProgressMergeEnd, "Done")
		log.Info("Driver: run complete → %s", run.Output())
	}

	if d.ledger != nil {
		if ferr := d.ledger.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
			log.Error("Driver: %v", ferr)
		}
	}
	return run, err
}

func (d *Driver) execute(ctx context.Context, run *models.Run, log *logger.Logger) error {
	log.Info("Driver: Stage 1/5 - Scanning %s", d.cfg.Paths.InputDir)
	d.progress(run, models.StatusScanning, "Scanning", config.ProgressScanStart, "Scanning input files...")

	m, err := d.builder.Build(d.cfg.Paths.InputDir)
	if err != nil {
		return err
	}
	d.progress(run, models.StatusScanning, "Scanning", config.ProgressScanEnd,
		fmt.Sprintf("Found %d segments", m.Len()))

	log.Info("Driver: Stage 2/5 - Building %d segments", m.Len())
	records := m.Records()
	span := config.ProgressSegmentsEnd - config.ProgressSegmentsStart
	for i, record := range records {
		percent := config.ProgressSegmentsStart + span*i/len(records)
		d.progress(run, models.StatusSegments, "Segments", percent,
			fmt.Sprintf("Segment %d/%d (key %d)", i+1, len(records), record.Key))

		art, err := d.segment(ctx, run, record, m.Role(record.Key))
		if err != nil {
			return err
		}
		run.Segments = append(run.Segments, art)
	}
	d.progress(run, models.StatusSegments, "Segments", config.ProgressSegmentsEnd,
		fmt.Sprintf("%d segments ready (%d reused)", len(records), run.Reused()))

	if d.cfg.Steps.BaseVideo {
		log.Info("Driver: Stage 3/5 - Assembling base video")
		d.progress(run, models.StatusAssembling, "Assembling", config.ProgressAssembleStart, "Concatenating clips...")

		clips := make([]string, 0, len(run.Segments))
		for _, art := range run.Segments {
			clips = append(clips, art.Clip)
		}
		if err := d.assembler.Assemble(ctx, clips, d.layout.VideoList(), d.layout.BaseVideo()); err != nil {
			return err
		}
		run.BaseVideo = d.layout.BaseVideo()
		d.progress(run, models.StatusAssembling, "Assembling", config.ProgressAssembleEnd, "Base video ready")
	}

	if d.cfg.Steps.Subtitles {
		log.Info("Driver: Stage 4/5 - Recovering transcript")
		d.progress(run, models.StatusTranscribing, "Transcribing", config.ProgressSubtitleStart, "Recognizing narration...")

		srt := d.layout.Subtitles(d.layout.BaseName)
		if _, err := d.transcript.Recover(ctx, d.layout.BaseVideo(), d.layout.RecognitionAudio(), srt); err != nil {
			return err
		}
		run.Subtitles = srt
		d.progress(run, models.StatusTranscribing, "Transcribing", config.ProgressSubtitleEnd, "Subtitles ready")
	}

	if d.cfg.Steps.FinalVideo {
		log.Info("Driver: Stage 5/5 - Burning subtitles")
		d.progress(run, models.StatusMerging, "Merging", config.ProgressMergeStart, "Burning subtitles...")

		if err := d.assembler.MergeSubtitles(ctx, d.layout.BaseVideo(), d.layout.MergeSubtitles(), d.layout.FinalVideo()); err != nil {
			return err
		}
		run.Final = d.layout.FinalVideo()
	}
	return nil
}

// segment builds one segment, or reuses the clip of an earlier run when
// resume is on and neither the inputs nor the settings changed.
func (d *Driver) segment(ctx context.Context, run *models.Run, record models.SegmentRecord, role models.Role) (models.SegmentArtifacts, error) {
	if d.ledger == nil {
		return d.segments.Run(ctx, record, role)
	}

	fp, err := ledger.Fingerprint(record, d.segments.Settings(role)...)
	if err != nil {
		return models.SegmentArtifacts{}, faults.Wrap(faults.ErrMissingFile, "fingerprint segment", record.Voice, err)
	}

	art, reused, err := d.reuse(ctx, run, record, role, fp)
	if err != nil {
		return art, err
	}
	if !reused {
		start := time.Now()
		art, err = d.segments.Run(ctx, record, role)
		if err != nil {
			return art, err
		}
		d.log.Debug("Driver: segment %d built in %s", record.Key, time.Since(start).Round(time.Millisecond))
	}

	entry := ledger.SegmentEntry{
		RunID:       run.ID,
		Key:         record.Key,
		Role:        role,
		Fingerprint: fp,
		Clip:        art.Clip,
		Frames:      art.Frames,
		Duration:    art.Duration,
		Skipped:     art.Skipped,
	}
	if art.Clip != "" {
		if info, err := os.Stat(art.Clip); err == nil {
			entry.ClipSize = info.Size()
			entry.ClipModTime = info.ModTime().UnixNano()
		}
	}
	return art, d.ledger.RecordSegment(ctx, entry)
}

func (d *Driver) reuse(ctx context.Context, run *models.Run, record models.SegmentRecord, role models.Role, fp string) (models.SegmentArtifacts, bool, error) {
	if !d.cfg.Resume.Enabled || !d.cfg.Steps.BaseVideo {
		return models.SegmentArtifacts{}, false, nil
	}
	art := d.segments.Artifacts(record.Key, role)
	prev, ok, err := d.ledger.LastSegment(ctx, art.Clip, run.ID)
	if err != nil || !ok {
		return models.SegmentArtifacts{}, false, err
	}
	if prev.Fingerprint != fp {
		return models.SegmentArtifacts{}, false, nil
	}
	// The clip must still be the file that entry recorded.
	info, err := os.Stat(prev.Clip)
	if err != nil || !prev.Matches(info) {
		d.log.Debug("Driver: segment %d clip changed since run %s, rebuilding", record.Key, prev.RunID)
		return models.SegmentArtifacts{}, false, nil
	}

	art.Clip = prev.Clip
	art.Frames = prev.Frames
	art.Duration = prev.Duration
	art.Skipped = true
	d.log.Info("Driver: segment %d unchanged, reusing %s", record.Key, prev.Clip)
	return art, true, nil
}
