package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"video-maker/internal/config"
	"video-maker/internal/imaging"
	"video-maker/internal/ledger"
	"video-maker/internal/logger"
	"video-maker/internal/manifest"
	"video-maker/internal/media"
	"video-maker/internal/text"
	"video-maker/internal/workspace"
	"video-maker/models"
	"video-maker/services"
)

func newToolchain(cfg *models.Config) *media.FFmpegService {
	return media.NewFFmpegServiceWithPaths(cfg.Video.FFmpegPath, cfg.Video.FFprobePath)
}

func openLedger(cfg *models.Config) (*ledger.Ledger, error) {
	if cfg.Paths.LedgerPath == "" {
		return nil, nil
	}
	return ledger.Open(cfg.Paths.LedgerPath, logger.Default())
}

// withLock runs fn while holding the workspace lock of layout.
func withLock(layout workspace.Layout, fn func() error) error {
	if err := layout.Ensure(); err != nil {
		return err
	}
	lock, err := workspace.Acquire(layout.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputDir string
	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the video from the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *loaded
			if inputDir != "" {
				cfg.Paths.InputDir = inputDir
			}
			if cmd.Flags().Changed("resume") {
				cfg.Resume.Enabled = resume
			}
			return runBuild(cmd, &cfg)
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Override paths.input_dir")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse unchanged segments from earlier runs")
	return cmd
}

func runBuild(cmd *cobra.Command, cfg *models.Config) error {
	runCtx := cmd.Context()
	layout := workspace.NewLayout(cfg, time.Now())
	ff := newToolchain(cfg)
	if err := ff.CheckInstalled(runCtx); err != nil {
		return err
	}

	deps := services.Deps{Toolchain: ff}
	if cfg.Steps.Images {
		fonts, err := imaging.LoadFontSet(cfg.Style.BoldFont, cfg.Style.RegularFont)
		if err != nil {
			return err
		}
		defer fonts.Close()
		deps.Compositor = imaging.NewRenderer(fonts)
	}
	if cfg.Steps.Voice {
		synth, err := services.NewSynthesizer(cfg, ff)
		if err != nil {
			return err
		}
		if err := synth.CheckInstalled(runCtx); err != nil {
			return err
		}
		deps.Synthesizer = synth
	}
	if cfg.Steps.Subtitles {
		rec, err := services.NewRecognizer(cfg)
		if err != nil {
			return err
		}
		deps.Recognizer = rec
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	if l != nil {
		defer l.Close()
		deps.Ledger = l
	}

	driver, err := services.NewDriver(cfg, layout, deps)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	progress := newProgressPrinter(out)
	driver.SetProgressCallback(progress.update)

	run, err := driver.Run(runCtx)
	progress.finish()
	if run != nil && len(run.Segments) > 0 {
		fmt.Fprintln(out, renderSegments(run.Segments))
	}
	if err != nil {
		return err
	}
	if output := run.Output(); output != "" {
		fmt.Fprintf(out, "Output: %s (%s)\n", output, fileSize(output))
	}
	fmt.Fprintf(out, "Run %s finished in %s, %d segments, %d reused\n",
		run.ID, formatDuration(run.CompletedAt.Sub(run.CreatedAt)), len(run.Segments), run.Reused())
	return nil
}

func renderSegments(segments []models.SegmentArtifacts) string {
	rows := make([][]string, 0, len(segments))
	var frames int
	var narration time.Duration
	for _, s := range segments {
		frames += s.Frames
		narration += s.Duration
		reused := ""
		if s.Skipped {
			reused = "yes"
		}
		rows = append(rows, []string{
			s.Key.String(), string(s.Role), strconv.Itoa(s.Frames), formatDuration(s.Duration),
			s.Clip, fileSize(s.Clip), reused,
		})
	}
	return renderTable(
		[]tableColumn{
			{title: "Key", align: alignRight},
			{title: "Role"},
			{title: "Frames", align: alignRight},
			{title: "Narration", align: alignRight},
			{title: "Clip", width: 60},
			{title: "Size", align: alignRight},
			{title: "Reused"},
		},
		rows,
		"Total", "", strconv.Itoa(frames), formatDuration(narration),
	)
}

func newManifestCommand(ctx *commandContext) *cobra.Command {
	var inputDir string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Scan and validate the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.InputDir
			if inputDir != "" {
				dir = inputDir
			}
			m, err := manifest.NewBuilder(cfg.Naming).Build(dir)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, m.Len())
			for _, r := range m.Records() {
				rows = append(rows, []string{
					r.Key.String(), string(m.Role(r.Key)),
					filepath.Base(r.Background), filepath.Base(r.Text), filepath.Base(r.Voice),
					fileSize(r.Background),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{title: "Key", align: alignRight},
					{title: "Role"},
					{title: "Background"},
					{title: "Text"},
					{title: "Voice"},
					{title: "Image size", align: alignRight},
				},
				rows,
			))
			fmt.Fprintf(out, "%d segments in %s\n", m.Len(), m.Dir())
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Override paths.input_dir")
	return cmd
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe [video]",
		Short: "Recover a subtitle file from a video's narration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			layout := workspace.NewLayout(cfg, time.Now())
			source := layout.BaseVideo()
			if len(args) == 1 {
				source = args[0]
			}
			name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			audio := filepath.Join(layout.AudioDir(), name+config.WAVSuffix)
			srt := layout.Subtitles(name)

			rec, err := services.NewRecognizer(cfg)
			if err != nil {
				return err
			}
			recovery := services.NewTranscriptRecovery(newToolchain(cfg), rec, cfg.Speech.RecognitionLanguage, cfg.RecognitionTimeout())

			var transcript *services.Transcript
			err = withLock(layout, func() error {
				var rerr error
				transcript, rerr = recovery.Recover(cmd.Context(), source, audio, srt)
				return rerr
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%d utterances, %s)\n", transcript.Path, transcript.Utterances, formatDuration(transcript.Duration))
			fmt.Fprintln(out, transcript.Text)
			return nil
		},
	}
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge [video] [subtitles]",
		Short: "Burn a subtitle file into a video",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			layout := workspace.NewLayout(cfg, time.Now())
			video, srt := layout.BaseVideo(), layout.MergeSubtitles()
			if len(args) > 0 {
				video = args[0]
			}
			if len(args) > 1 {
				srt = args[1]
			}
			if output == "" {
				output = layout.FinalVideo()
			}

			assembler := services.NewAssembler(newToolchain(cfg))
			err = withLock(layout, func() error {
				return assembler.MergeSubtitles(cmd.Context(), video, srt, output)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", output, fileSize(output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path")
	return cmd
}

func newMergeAudioCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge-audio",
		Short: "Concatenate the narration of every segment into one waveform",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m, err := manifest.NewBuilder(cfg.Naming).Build(cfg.Paths.InputDir)
			if err != nil {
				return err
			}
			layout := workspace.NewLayout(cfg, time.Now())
			files := make([]string, 0, m.Len())
			for _, key := range m.Keys() {
				files = append(files, layout.Audio(key))
			}
			if output == "" {
				output = layout.MergedAudio()
			}

			assembler := services.NewAssembler(newToolchain(cfg))
			err = withLock(layout, func() error {
				return assembler.MergeAudio(cmd.Context(), files, layout.AudioList(), output)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d segments)\n", output, fileSize(output), len(files))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output audio path")
	return cmd
}

func newVoicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "voices",
		Short:       "List the neural voices",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			voices := text.Voices()
			rows := make([][]string, 0, len(voices))
			for _, v := range voices {
				rows = append(rows, []string{v.ID, v.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(leftColumns("Voice", "Description"), rows))
			return nil
		},
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, fonts and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checkCtx := cmd.Context()
			ff := newToolchain(cfg)

			var rows [][]string
			var failed []string
			check := func(name string, required bool, err error, detail string) {
				status := "ok"
				if err != nil {
					detail = err.Error()
					status = "missing"
					if required {
						failed = append(failed, name)
					} else {
						status = "optional"
					}
				}
				rows = append(rows, []string{name, status, detail})
			}

			check("ffmpeg/ffprobe", true, ff.CheckInstalled(checkCtx), ff.GetPath()+", "+ff.GetProbePath())

			edge := services.NewEdgeTTSService(cfg.Speech.EdgeTTSPath, ff)
			check("edge-tts", cfg.Speech.Provider == config.ProviderEdgeTTS && cfg.Steps.Voice,
				edge.CheckInstalled(checkCtx), "edge-tts --version")

			azureNeeded := cfg.Steps.Subtitles || (cfg.Steps.Voice && cfg.Speech.Provider == config.ProviderAzure)
			check("azure speech", azureNeeded, cfg.RequireAzureCredentials(), "region "+cfg.Speech.Region)

			fonts, ferr := imaging.LoadFontSet(cfg.Style.BoldFont, cfg.Style.RegularFont)
			if ferr == nil {
				fonts.Close()
			}
			check("fonts", cfg.Steps.Images, ferr, fontDetail(cfg.Style))

			player, perr := media.NewPlayer().Command("")
			playerDetail := ""
			if perr == nil {
				playerDetail = player.Program
			}
			check("player", false, perr, playerDetail)

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(leftColumns("Check", "Status", "Detail"), rows))
			if ctx.configPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n", ctx.configPath)
			}
			if len(failed) > 0 {
				return fmt.Errorf("doctor: %s not ready", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func fontDetail(s models.Style) string {
	bold, regular := s.BoldFont, s.RegularFont
	if bold == "" {
		bold = "Go Bold"
	}
	if regular == "" {
		regular = "Go Regular"
	}
	return bold + ", " + regular
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play [file]",
		Short: "Play a video with vlc or ffplay (defaults to the latest output)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				path, err = latestOutput(cmd.Context(), cfg)
				if err != nil {
					return err
				}
			}
			return media.NewPlayer().Play(cmd.Context(), path)
		},
	}
}

// latestOutput returns the newest existing output recorded in the ledger,
// falling back to the base video path.
func latestOutput(ctx context.Context, cfg *models.Config) (string, error) {
	fallback := workspace.NewLayout(cfg, time.Now()).BaseVideo()
	if _, err := os.Stat(cfg.Paths.LedgerPath); err != nil {
		return fallback, nil
	}
	l, err := openLedger(cfg)
	if err != nil || l == nil {
		return fallback, err
	}
	defer l.Close()

	runs, err := l.Runs(ctx, 20)
	if err != nil {
		return "", err
	}
	for _, r := range runs {
		for _, p := range []string{r.FinalVideo, r.BaseVideo} {
			if p == "" {
				continue
			}
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return fallback, nil
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := models.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}

			if err := models.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set speech.key and speech.region before using the azure provider or subtitles.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			// loading already ran in the root pre-run
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or the segments of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			if l == nil {
				return fmt.Errorf("no ledger configured (paths.ledger_path)")
			}
			defer l.Close()

			runs, err := l.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, renderRuns(runs))
				return nil
			}

			for _, r := range runs {
				if strings.HasPrefix(r.ID, args[0]) {
					segs, err := l.Segments(cmd.Context(), r.ID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, renderLedgerSegments(segs))
					return nil
				}
			}
			return fmt.Errorf("run %s not found in the last %d runs", args[0], len(runs))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}

func renderRuns(runs []ledger.RunEntry) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		output := r.FinalVideo
		if output == "" {
			output = r.BaseVideo
		}
		rows = append(rows, []string{
			shortID(r.ID), string(r.Status), formatWhen(r.StartedAt), formatDuration(r.Duration()),
			strconv.Itoa(r.Segments), strconv.Itoa(r.Reused), output, r.Error,
		})
	}
	return renderTable(
		[]tableColumn{
			{title: "Run"},
			{title: "Status"},
			{title: "Started"},
			{title: "Took", align: alignRight},
			{title: "Segments", align: alignRight},
			{title: "Reused", align: alignRight},
			{title: "Output", width: 60},
			{title: "Error", width: 48},
		},
		rows,
	)
}

func renderLedgerSegments(segs []ledger.SegmentEntry) string {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		reused := ""
		if s.Skipped {
			reused = "yes"
		}
		rows = append(rows, []string{
			s.Key.String(), string(s.Role), strconv.Itoa(s.Frames), formatDuration(s.Duration),
			s.Clip, shortID(s.Fingerprint), reused,
		})
	}
	return renderTable(
		[]tableColumn{
			{title: "Key", align: alignRight},
			{title: "Role"},
			{title: "Frames", align: alignRight},
			{title: "Narration", align: alignRight},
			{title: "Clip", width: 60},
			{title: "Fingerprint"},
			{title: "Reused"},
		},
		rows,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
