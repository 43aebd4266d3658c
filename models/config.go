package models

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"video-maker/internal/config"
	"video-maker/internal/faults"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates inputs, intermediate artifacts and outputs.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	WorkDir    string `toml:"work_dir"`
	OutputDir  string `toml:"output_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Naming holds the input file prefixes and output video names.
type Naming struct {
	BackgroundPrefix string `toml:"background_prefix"`
	TextPrefix       string `toml:"text_prefix"`
	VoicePrefix      string `toml:"voice_prefix"`
	BaseVideoName    string `toml:"base_video_name"`
	FinalVideoName   string `toml:"final_video_name"`
}

// Speech configures synthesis and recognition.
type Speech struct {
	Provider                  string `toml:"provider"` // azure, edge-tts
	Key                       string `toml:"key"`
	Region                    string `toml:"region"`
	Voice                     string `toml:"voice"`
	Language                  string `toml:"language"`
	RecognitionLanguage       string `toml:"recognition_language"`
	OutputFormat              string `toml:"output_format"`
	EdgeTTSPath               string `toml:"edge_tts_path"`
	ExportMP3                 bool   `toml:"export_mp3"`
	MinDelaySeconds           int    `toml:"min_delay_seconds"`
	MaxDelaySeconds           int    `toml:"max_delay_seconds"`
	RecognitionTimeoutSeconds int    `toml:"recognition_timeout_seconds"`
	RequestTimeoutSeconds     int    `toml:"request_timeout_seconds"`
}

// Video configures the transcoder.
type Video struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	FrameRate    int    `toml:"frame_rate"`
	Resolution   string `toml:"resolution"`
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	PixelFormat  string `toml:"pixel_format"`
	FrameDigits  int    `toml:"frame_digits"`
	FrameWorkers int    `toml:"frame_workers"`
}

// Style configures the caption compositor.
type Style struct {
	BoldFont        string    `toml:"bold_font"`
	RegularFont     string    `toml:"regular_font"`
	TextColor       string    `toml:"text_color"`
	BackgroundColor string    `toml:"background_color"`
	First           RoleStyle `toml:"first"`
	Middle          RoleStyle `toml:"middle"`
	Last            RoleStyle `toml:"last"`
}

// ForRole returns the rendering policy for role.
func (s Style) ForRole(role Role) RoleStyle {
	switch role {
	case RoleFirst:
		return s.First
	case RoleLast:
		return s.Last
	default:
		return s.Middle
	}
}

// Steps switches individual pipeline stages on or off.
type Steps struct {
	Voice      bool `toml:"voice"`
	Images     bool `toml:"images"`
	BaseVideo  bool `toml:"base_video"`
	Subtitles  bool `toml:"subtitles"`
	FinalVideo bool `toml:"final_video"`
}

// Resume controls reuse of unchanged segments between runs.
type Resume struct {
	Enabled bool `toml:"enabled"`
}

// Logging configures log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the immutable run configuration.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Naming  Naming  `toml:"naming"`
	Speech  Speech  `toml:"speech"`
	Video   Video   `toml:"video"`
	Style   Style   `toml:"style"`
	Steps   Steps   `toml:"steps"`
	Resume  Resume  `toml:"resume"`
	Logging Logging `toml:"logging"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Paths: Paths{
			InputDir:  config.DefaultInputDir,
			WorkDir:   config.DefaultWorkDir,
			OutputDir: config.DefaultOutputDir,
		},
		Naming: Naming{
			BackgroundPrefix: config.DefaultBackgroundPrefix,
			TextPrefix:       config.DefaultTextPrefix,
			VoicePrefix:      config.DefaultVoicePrefix,
			BaseVideoName:    config.DefaultBaseVideoName,
			FinalVideoName:   config.DefaultFinalVideoName,
		},
		Speech: Speech{
			Provider:                  config.ProviderAzure,
			Voice:                     config.DefaultVoice,
			Language:                  config.DefaultLanguage,
			RecognitionLanguage:       config.DefaultRecognitionLanguage,
			OutputFormat:              config.DefaultOutputFormat,
			EdgeTTSPath:               "edge-tts",
			MinDelaySeconds:           int(config.DefaultMinDelay / time.Second),
			MaxDelaySeconds:           int(config.DefaultMaxDelay / time.Second),
			RecognitionTimeoutSeconds: int(config.DefaultRecognitionTimeout / time.Second),
			RequestTimeoutSeconds:     int(config.DefaultRequestTimeout / time.Second),
		},
		Video: Video{
			FFmpegPath:   config.DefaultFFmpegPath,
			FFprobePath:  config.DefaultFFprobePath,
			FrameRate:    config.DefaultFrameRate,
			Resolution:   config.DefaultResolution,
			VideoCodec:   config.DefaultVideoCodec,
			AudioCodec:   config.DefaultAudioCodec,
			PixelFormat:  config.DefaultPixelFormat,
			FrameDigits:  config.DefaultFrameDigits,
			FrameWorkers: config.DefaultFrameWorkers,
		},
		Style: Style{
			TextColor:       config.DefaultTextColor,
			BackgroundColor: config.DefaultBackgroundColor,
			First:           RoleStyle{FontSize: config.TitleFontSize, EmphasisLines: config.TitleEmphasisLines},
			Middle:          RoleStyle{FontSize: config.ContentFontSize, EmphasisLines: config.ContentEmphasisLine},
			Last:            RoleStyle{FontSize: config.TitleFontSize, EmphasisLines: config.TitleEmphasisLines},
		},
		Steps: Steps{
			Voice:     true,
			Images:    true,
			BaseVideo: true,
		},
		Logging: Logging{
			Level:  config.DefaultLogLevel,
			Format: config.DefaultLogFormat,
		},
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	return homedir.Expand("~/.config/video-maker/config.toml")
}

// LoadConfig reads path (or the default location when empty), overlays it on
// the defaults, then normalizes and validates the result. A missing file is
// not an error. The resolved path and whether it existed are returned.
func LoadConfig(path string) (*Config, string, bool, error) {
	cfg := DefaultConfig()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, faults.Wrap(faults.ErrInvalidConfig, "parse config", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// ParseConfig decodes TOML content over the defaults. It is LoadConfig
// without the file system lookup.
func ParseConfig(content string) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, faults.Wrap(faults.ErrInvalidConfig, "parse config", "", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat("video-maker.toml"); err == nil && !info.IsDir() {
			path = "video-maker.toml"
		} else {
			path = def
		}
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

func expandPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return p, nil
	}
	expanded, err := homedir.Expand(strings.TrimSpace(p))
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Clean(expanded), nil
}

// normalize trims values, expands ~ and refills empty values from defaults.
func (c *Config) normalize() error {
	def := DefaultConfig()

	var err error
	for _, p := range []*string{&c.Paths.InputDir, &c.Paths.WorkDir, &c.Paths.OutputDir, &c.Paths.LedgerPath, &c.Style.BoldFont, &c.Style.RegularFont} {
		if *p, err = expandPath(*p); err != nil {
			return faults.Wrap(faults.ErrInvalidConfig, "normalize config", "", err)
		}
	}

	fill(&c.Paths.InputDir, def.Paths.InputDir)
	fill(&c.Paths.WorkDir, c.Paths.InputDir)
	fill(&c.Paths.OutputDir, def.Paths.OutputDir)
	fill(&c.Paths.LedgerPath, filepath.Join(c.Paths.WorkDir, config.LedgerName))

	c.Naming.BaseVideoName = strings.TrimSpace(c.Naming.BaseVideoName)
	fill(&c.Naming.BaseVideoName, def.Naming.BaseVideoName)
	// An empty final name is kept; the driver stamps it with the run time.
	c.Naming.FinalVideoName = strings.TrimSpace(c.Naming.FinalVideoName)

	c.Speech.Provider = strings.ToLower(strings.TrimSpace(c.Speech.Provider))
	fill(&c.Speech.Provider, def.Speech.Provider)
	c.Speech.Key = strings.TrimSpace(c.Speech.Key)
	c.Speech.Region = strings.TrimSpace(c.Speech.Region)
	fill(&c.Speech.Voice, def.Speech.Voice)
	fill(&c.Speech.Language, def.Speech.Language)
	fill(&c.Speech.RecognitionLanguage, c.Speech.Language)
	fill(&c.Speech.OutputFormat, def.Speech.OutputFormat)
	fill(&c.Speech.EdgeTTSPath, def.Speech.EdgeTTSPath)

	fill(&c.Video.FFmpegPath, def.Video.FFmpegPath)
	fill(&c.Video.FFprobePath, def.Video.FFprobePath)
	fill(&c.Video.Resolution, def.Video.Resolution)
	fill(&c.Video.VideoCodec, def.Video.VideoCodec)
	fill(&c.Video.AudioCodec, def.Video.AudioCodec)
	fill(&c.Video.PixelFormat, def.Video.PixelFormat)
	if c.Video.FrameDigits == 0 {
		c.Video.FrameDigits = def.Video.FrameDigits
	}
	if c.Video.FrameWorkers == 0 {
		c.Video.FrameWorkers = def.Video.FrameWorkers
	}

	fill(&c.Style.TextColor, def.Style.TextColor)
	fill(&c.Style.BackgroundColor, def.Style.BackgroundColor)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	fill(&c.Logging.Level, def.Logging.Level)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	fill(&c.Logging.Format, def.Logging.Format)
	return nil
}

func fill(value *string, fallback string) {
	*value = strings.TrimSpace(*value)
	if *value == "" {
		*value = fallback
	}
}

var resolutionPattern = regexp.MustCompile(`^\d+x\d+$`)

// Validate reports the first invalid setting as faults.ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return faults.Wrapf(faults.ErrInvalidConfig, "validate config", "", format, args...)
	}

	for name, prefix := range map[string]string{
		"naming.background_prefix": c.Naming.BackgroundPrefix,
		"naming.text_prefix":       c.Naming.TextPrefix,
		"naming.voice_prefix":      c.Naming.VoicePrefix,
	} {
		if strings.TrimSpace(prefix) == "" {
			return invalid("%s is required", name)
		}
	}
	// Both name .txt files, so neither prefix may start the other.
	if strings.HasPrefix(c.Naming.TextPrefix, c.Naming.VoicePrefix) || strings.HasPrefix(c.Naming.VoicePrefix, c.Naming.TextPrefix) {
		return invalid("naming.text_prefix %q and naming.voice_prefix %q overlap", c.Naming.TextPrefix, c.Naming.VoicePrefix)
	}

	switch c.Speech.Provider {
	case config.ProviderAzure, config.ProviderEdgeTTS:
	default:
		return invalid("speech.provider must be %q or %q", config.ProviderAzure, config.ProviderEdgeTTS)
	}
	if c.Speech.MinDelaySeconds < 0 || c.Speech.MaxDelaySeconds < c.Speech.MinDelaySeconds {
		return invalid("speech delay range %d..%d is invalid", c.Speech.MinDelaySeconds, c.Speech.MaxDelaySeconds)
	}
	if c.Speech.RecognitionTimeoutSeconds <= 0 {
		return invalid("speech.recognition_timeout_seconds must be positive")
	}
	if c.Speech.RequestTimeoutSeconds <= 0 {
		return invalid("speech.request_timeout_seconds must be positive")
	}

	if c.Video.FrameRate <= 0 {
		return invalid("video.frame_rate must be positive")
	}
	if !resolutionPattern.MatchString(c.Video.Resolution) {
		return invalid("video.resolution %q must look like 1920x1080", c.Video.Resolution)
	}
	if c.Video.FrameDigits <= 0 {
		return invalid("video.frame_digits must be positive")
	}
	if c.Video.FrameWorkers <= 0 {
		return invalid("video.frame_workers must be positive")
	}

	for name, value := range map[string]string{
		"style.text_color":       c.Style.TextColor,
		"style.background_color": c.Style.BackgroundColor,
	} {
		if _, err := ParseRGB(value); err != nil {
			return invalid("%s: %v", name, err)
		}
	}
	for name, rs := range map[string]RoleStyle{
		"style.first":  c.Style.First,
		"style.middle": c.Style.Middle,
		"style.last":   c.Style.Last,
	} {
		if rs.FontSize <= 0 {
			return invalid("%s.font_size must be positive", name)
		}
		if rs.EmphasisLines < 0 {
			return invalid("%s.emphasis_lines must not be negative", name)
		}
	}

	switch c.Logging.Format {
	case "text", "json", "logfmt":
	default:
		return invalid("logging.format must be text, json or logfmt")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

// RequireAzureCredentials reports a missing key or region. Only commands that
// call the hosted speech service need them.
func (c *Config) RequireAzureCredentials() error {
	if c.Speech.Key == "" {
		return faults.Wrapf(faults.ErrInvalidConfig, "validate config", "", "speech.key is required")
	}
	if c.Speech.Region == "" {
		return faults.Wrapf(faults.ErrInvalidConfig, "validate config", "", "speech.region is required")
	}
	return nil
}

// MinDelay returns the lower bound of the courtesy delay.
func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.Speech.MinDelaySeconds) * time.Second
}

// MaxDelay returns the upper bound of the courtesy delay.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Speech.MaxDelaySeconds) * time.Second
}

// RecognitionTimeout bounds one recognition session.
func (c *Config) RecognitionTimeout() time.Duration {
	return time.Duration(c.Speech.RecognitionTimeoutSeconds) * time.Second
}

// RequestTimeout bounds one provider HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Speech.RequestTimeoutSeconds) * time.Second
}

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseRGB parses "r,g,b" with components in 0..255.
func ParseRGB(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("color %q must be r,g,b", s)
	}
	var out [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("color component %q must be 0..255", p)
		}
		out[i] = uint8(v)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
