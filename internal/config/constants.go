// Package config provides centralized defaults and constants for the video-maker application.
package config

import "time"

// Progress stage boundaries (0-100%)
const (
	ProgressScanStart     = 0
	ProgressScanEnd       = 5
	ProgressSegmentsStart = 5
	ProgressSegmentsEnd   = 80
	ProgressAssembleStart = 80
	ProgressAssembleEnd   = 88
	ProgressSubtitleStart = 88
	ProgressSubtitleEnd   = 95
	ProgressMergeStart    = 95
	ProgressMergeEnd      = 100
)

// Input naming
const (
	DefaultBackgroundPrefix = "video_bg_"
	DefaultTextPrefix       = "video_text_"
	DefaultVoicePrefix      = "voice_text_"

	PNGSuffix  = ".png"
	TextSuffix = ".txt"
	WAVSuffix  = ".wav"
	MP3Suffix  = ".mp3"
	MP4Suffix  = ".mp4"
	SRTSuffix  = ".srt"

	DefaultBaseVideoName  = "base"
	DefaultFinalVideoName = "final"
	VideoListFileName     = "videolist.txt"
	AudioListFileName     = "audiolist.txt"
	DefaultMergedAudio    = "final.wav"
)

// Workspace directories (relative to the work dir)
const (
	AudioDirName = "audio"
	ImageDirName = "img"
	VideoDirName = "video"
	SRTDirName   = "srt"
	LockFileName = ".video-maker.lock"
	LedgerName   = "ledger.db"
)

// Default paths
const (
	DefaultInputDir  = "./input"
	DefaultWorkDir   = "./input"
	DefaultOutputDir = "./output"
)

// Speech settings
const (
	ProviderAzure   = "azure"
	ProviderEdgeTTS = "edge-tts"

	DefaultVoice               = "zh-CN-YunzeNeural"
	DefaultLanguage            = "zh-CN"
	DefaultRecognitionLanguage = "zh-CN"
	DefaultOutputFormat        = "riff-24khz-16bit-mono-pcm"

	DefaultMinDelay           = 5 * time.Second
	DefaultMaxDelay           = 10 * time.Second
	DefaultRecognitionTimeout = 10 * time.Minute
	DefaultRequestTimeout     = 2 * time.Minute

	// RecognitionChunk bounds one short-audio request; the service rejects
	// payloads longer than 60 seconds.
	RecognitionChunk = 30 * time.Second
)

// API endpoints (format strings take the region)
const (
	AzureTTSEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	AzureSTTEndpointFormat = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	UserAgent              = "video-maker"
)

// Video settings
const (
	DefaultFFmpegPath   = "ffmpeg"
	DefaultFFprobePath  = "ffprobe"
	DefaultFrameRate    = 1
	DefaultResolution   = "1920x1080"
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultPixelFormat  = "yuv420p"
	DefaultFrameDigits  = 3
	DefaultFrameWorkers = 4
	MP3Bitrate          = "192k"
)

// Audio settings
const (
	AudioSampleRate16k = 16000 // recognition input
)

// Style defaults
const (
	DefaultTextColor       = "64,64,64"
	DefaultBackgroundColor = "0,0,0"

	TitleFontSize       = 100
	TitleEmphasisLines  = 10
	ContentFontSize     = 70
	ContentEmphasisLine = 1
)

// HTTP client settings
const (
	HTTPMaxIdleConns        = 10
	HTTPMaxIdleConnsPerHost = 10
	HTTPIdleConnTimeout     = 90 * time.Second
)

// Exec command timeouts (for os/exec calls)
const (
	ExecTimeoutFFmpeg = 30 * time.Minute
	ExecTimeoutProbe  = time.Minute
)

// Logging
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
