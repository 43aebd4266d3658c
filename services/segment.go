package services

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"video-maker/internal/faults"
	"video-maker/internal/imaging"
	"video-maker/internal/logger"
	"video-maker/internal/media"
	"video-maker/internal/text"
	"video-maker/internal/tts"
	"video-maker/internal/workspace"
	"video-maker/models"
)

// SegmentPipeline turns one segment's inputs into a clip: narration audio,
// composited frame, replicated frames, encoded clip.
type SegmentPipeline struct {
	layout     workspace.Layout
	synth      tts.Synthesizer
	compositor imaging.Compositor
	media      Encoder

	speech    models.Speech
	video     models.Video
	style     models.Style
	steps     models.Steps
	textColor models.RGB
	bgColor   models.RGB

	log *logger.Logger
}

// NewSegmentPipeline wires the collaborators of one run. The synthesizer is
// only called when the voice step is enabled and may be nil otherwise.
func NewSegmentPipeline(cfg *models.Config, layout workspace.Layout, synth tts.Synthesizer, compositor imaging.Compositor, enc Encoder) (*SegmentPipeline, error) {
	textColor, err := models.ParseRGB(cfg.Style.TextColor)
	if err != nil {
		return nil, faults.Wrap(faults.ErrInvalidConfig, "style.text_color", "", err)
	}
	bgColor, err := models.ParseRGB(cfg.Style.BackgroundColor)
	if err != nil {
		return nil, faults.Wrap(faults.ErrInvalidConfig, "style.background_color", "", err)
	}
	if cfg.Steps.Voice && synth == nil {
		return nil, faults.Wrapf(faults.ErrInvalidConfig, "segment pipeline", "", "voice step enabled without a synthesizer")
	}
	return &SegmentPipeline{
		layout:     layout,
		synth:      synth,
		compositor: compositor,
		media:      enc,
		speech:     cfg.Speech,
		video:      cfg.Video,
		style:      cfg.Style,
		steps:      cfg.Steps,
		textColor:  textColor,
		bgColor:    bgColor,
		log:        logger.Default(),
	}, nil
}

// WithLogger replaces the pipeline logger.
func (p *SegmentPipeline) WithLogger(l *logger.Logger) *SegmentPipeline {
	p.log = l
	return p
}

// Artifacts returns the artifact paths of key without producing anything.
func (p *SegmentPipeline) Artifacts(key models.SegmentKey, role models.Role) models.SegmentArtifacts {
	art := models.SegmentArtifacts{
		Key:      key,
		Role:     role,
		Audio:    p.layout.Audio(key),
		Image:    p.layout.Image(key),
		FrameDir: p.layout.FrameDir(key),
		Clip:     p.layout.Clip(key),
	}
	if p.speech.ExportMP3 {
		art.MP3 = p.layout.MP3(key)
	}
	return art
}

// Settings lists every configuration value that shapes the clip of a
// segment with role. Resume fingerprints include them.
func (p *SegmentPipeline) Settings(role models.Role) []string {
	rs := p.style.ForRole(role)
	return []string{
		string(role),
		p.speech.Provider,
		p.speech.Voice,
		p.speech.Language,
		p.speech.OutputFormat,
		strconv.Itoa(rs.FontSize),
		strconv.Itoa(rs.EmphasisLines),
		p.style.BoldFont,
		p.style.RegularFont,
		p.style.TextColor,
		p.style.BackgroundColor,
		strconv.Itoa(p.video.FrameRate),
		p.video.Resolution,
		p.video.VideoCodec,
		p.video.AudioCodec,
		p.video.PixelFormat,
	}
}

// Run builds the artifacts of one segment. Each step that is switched off
// requires its artifact from an earlier run to be present.
func (p *SegmentPipeline) Run(ctx context.Context, record models.SegmentRecord, role models.Role) (models.SegmentArtifacts, error) {
	art := p.Artifacts(record.Key, role)
	log := p.log.With("segment", record.Key.String(), "role", string(role))

	if err := ctx.Err(); err != nil {
		return art, err
	}

	if p.steps.Voice {
		if err := p.synthesize(ctx, record, &art); err != nil {
			return art, err
		}
		log.Info("Segment: narration → %s", art.Audio)
	} else if err := requireArtifact("narration", art.Audio); err != nil {
		return art, err
	}

	if p.steps.Images {
		if err := p.compose(ctx, record, role, art.Image); err != nil {
			return art, err
		}
		log.Info("Segment: frame → %s", art.Image)
	} else if err := requireArtifact("frame", art.Image); err != nil {
		return art, err
	}

	if !p.steps.BaseVideo {
		art.Clip = ""
		return art, nil
	}

	if err := p.encode(ctx, &art); err != nil {
		return art, err
	}
	log.Info("Segment: %d frames → %s", art.Frames, art.Clip)
	return art, nil
}

func (p *SegmentPipeline) synthesize(ctx context.Context, record models.SegmentRecord, art *models.SegmentArtifacts) error {
	narration, err := text.ReadFile(record.Voice)
	if err != nil {
		return err
	}
	err = p.synth.Synthesize(ctx, tts.Request{
		Text:       narration,
		Voice:      p.speech.Voice,
		Language:   p.speech.Language,
		OutputPath: art.Audio,
	})
	if err != nil {
		return err
	}
	if art.MP3 != "" {
		if err := p.media.ConvertToMP3(ctx, art.Audio, art.MP3); err != nil {
			return err
		}
	}
	return nil
}

func (p *SegmentPipeline) compose(ctx context.Context, record models.SegmentRecord, role models.Role, output string) error {
	lines, err := text.ReadLines(record.Text)
	if err != nil {
		return err
	}
	return p.compositor.Compose(ctx, imaging.Request{
		Background:      record.Background,
		Lines:           lines,
		Style:           p.style.ForRole(role),
		TextColor:       p.textColor,
		BackgroundColor: p.bgColor,
		Output:          output,
	})
}

func (p *SegmentPipeline) encode(ctx context.Context, art *models.SegmentArtifacts) error {
	d, err := p.media.Duration(ctx, art.Audio)
	if err != nil {
		return err
	}
	art.Duration = d

	frames := media.FrameCount(d, p.video.FrameRate)
	if frames == 0 {
		return faults.Wrapf(faults.ErrAudioTooShort, "count frames", art.Audio,
			"%s of audio yields no frames at %d fps", d, p.video.FrameRate)
	}
	width := media.FrameWidth(frames, p.video.FrameDigits)

	if _, err := media.ReplicateFrames(ctx, art.Image, art.FrameDir, frames, width, p.video.FrameWorkers); err != nil {
		return faults.Wrap(faults.ErrEncodingFailed, "replicate frames", art.FrameDir, err)
	}
	art.Frames = frames

	// A failed encode leaves no clip behind.
	if err := os.Remove(art.Clip); err != nil && !os.IsNotExist(err) {
		return faults.Wrap(faults.ErrEncodingFailed, "remove stale clip", art.Clip, err)
	}
	return p.media.ImagesToVideo(ctx, media.FramePattern(art.FrameDir, width), art.Audio, art.Clip, media.EncodeOptions{
		FrameRate:   p.video.FrameRate,
		Resolution:  p.video.Resolution,
		VideoCodec:  p.video.VideoCodec,
		AudioCodec:  p.video.AudioCodec,
		PixelFormat: p.video.PixelFormat,
	})
}

func requireArtifact(what, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return faults.Wrap(faults.ErrMissingFile, fmt.Sprintf("step disabled, %s required", what), path, err)
	}
	if info.IsDir() {
		return faults.Wrapf(faults.ErrMissingFile, fmt.Sprintf("step disabled, %s required", what), path, "is a directory")
	}
	return nil
}
