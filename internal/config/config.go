package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/voxlate/voxlate/internal/tts"
	"github.com/voxlate/voxlate/pkg/log"
)

// Config holds all application configuration, loaded from environment
// variables with sensible defaults.
//
// Environment Variables:
//
// Translation:
// - OPENAI_API_KEY: API key for translation and the openai TTS provider (required)
// - TRANSLATE_MODEL: chat model for SRT translation (default: gpt-4o)
// - TRANSLATE_MAX_WORKERS: parallel translation chunks (default: 5)
//
// TTS:
// - TTS_PROVIDER: elevenlabs, openai or google (default: openai)
// - TTS_VOICE: default voice id/name (default: alloy)
// - TTS_MODEL: provider model override (optional)
// - ELEVENLABS_API_KEY: required when TTS_PROVIDER=elevenlabs
// - ELEVENLABS_RPM: requests per minute limit, 0 disables (default: 60)
// - GOOGLE_APPLICATION_CREDENTIALS: service account file, required when TTS_PROVIDER=google
//
// Storage (S3-compatible, e.g. Cloudflare R2; in-memory when unset):
// - R2_ENDPOINT: S3 endpoint URL
// - R2_ACCESS_KEY_ID / R2_SECRET_ACCESS_KEY: credentials
// - R2_BUCKET: bucket name
// - STORAGE_KEY_PREFIX: artifact key prefix (default: tts)
//
// Narration:
// - NARRATION_MAX_WORKERS: parallel synthesis/correction workers (default: 5)
//
// Jobs & housekeeping:
// - DATA_DIR: directory for the job database (default: ./data)
// - JOB_WORKERS: concurrent dubbing jobs (default: 1)
// - CLEANUP_CRON_EXPR: artifact purge schedule (default: 0 3 * * *)
// - ARTIFACT_TTL_HOURS: batch age before purge (default: 72)
//
// HTTP:
// - HTTP_ADDR: listen address (default: :8080)
//
// Logging:
// - LOG_LEVEL: DEBUG/INFO/WARN/ERROR (default: INFO)
// - LOG_FILE: optional log file path
type Config struct {
	Translate TranslateConfig `json:"translate"`
	TTS       TTSConfig       `json:"tts"`
	Storage   StorageConfig   `json:"storage"`
	Narration NarrationConfig `json:"narration"`
	Jobs      JobsConfig      `json:"jobs"`
	HTTP      HTTPConfig      `json:"http"`
	Log       LogConfig       `json:"log"`
}

type TranslateConfig struct {
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	MaxWorkers int    `json:"max_workers"`
}

type TTSConfig struct {
	Provider        string `json:"provider"`
	Voice           string `json:"voice"`
	Model           string `json:"model"`
	OpenAIKey       string `json:"openai_key"`
	ElevenLabsKey   string `json:"elevenlabs_key"`
	ElevenLabsRPM   int    `json:"elevenlabs_rpm"`
	GoogleCredsFile string `json:"google_creds_file"`
}

type StorageConfig struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Bucket          string `json:"bucket"`
	KeyPrefix       string `json:"key_prefix"`
}

// Remote reports whether S3-compatible storage is configured; when
// false the service falls back to the in-memory store.
func (c StorageConfig) Remote() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type NarrationConfig struct {
	MaxWorkers int `json:"max_workers"`
}

type JobsConfig struct {
	DataDir          string `json:"data_dir"`
	Workers          int    `json:"workers"`
	CleanupCronExpr  string `json:"cleanup_cron_expr"`
	ArtifactTTLHours int    `json:"artifact_ttl_hours"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for adjusting Config after env loading.
type Option func(*Config)

// NewFromEnv creates a Config from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Translate: TranslateConfig{
			APIKey:     getEnvString("OPENAI_API_KEY", ""),
			Model:      getEnvString("TRANSLATE_MODEL", "gpt-4o"),
			MaxWorkers: getEnvInt("TRANSLATE_MAX_WORKERS", 5),
		},
		TTS: TTSConfig{
			Provider:        getEnvString("TTS_PROVIDER", string(tts.ProviderOpenAI)),
			Voice:           getEnvString("TTS_VOICE", "alloy"),
			Model:           getEnvString("TTS_MODEL", ""),
			OpenAIKey:       getEnvString("OPENAI_API_KEY", ""),
			ElevenLabsKey:   getEnvString("ELEVENLABS_API_KEY", ""),
			ElevenLabsRPM:   getEnvInt("ELEVENLABS_RPM", 60),
			GoogleCredsFile: getEnvString("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Storage: StorageConfig{
			Endpoint:        getEnvString("R2_ENDPOINT", ""),
			AccessKeyID:     getEnvString("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnvString("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnvString("R2_BUCKET", ""),
			KeyPrefix:       getEnvString("STORAGE_KEY_PREFIX", "tts"),
		},
		Narration: NarrationConfig{
			MaxWorkers: getEnvInt("NARRATION_MAX_WORKERS", 5),
		},
		Jobs: JobsConfig{
			DataDir:          getEnvString("DATA_DIR", "./data"),
			Workers:          getEnvInt("JOB_WORKERS", 1),
			CleanupCronExpr:  getEnvString("CLEANUP_CRON_EXPR", "0 3 * * *"),
			ArtifactTTLHours: getEnvInt("ARTIFACT_TTL_HOURS", 72),
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "INFO"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config loaded: provider=%s storage_remote=%v addr=%s",
		config.TTS.Provider, config.Storage.Remote(), config.HTTP.Addr)

	return config, nil
}

// validate checks required configuration. Provider names form a closed
// set; each provider demands its own credentials.
func (c *Config) validate() error {
	if c.Translate.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	switch tts.Provider(c.TTS.Provider) {
	case tts.ProviderElevenLabs:
		if c.TTS.ElevenLabsKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required when TTS_PROVIDER=%s", c.TTS.Provider)
		}
	case tts.ProviderOpenAI:
		if c.TTS.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TTS_PROVIDER=%s", c.TTS.Provider)
		}
	case tts.ProviderGoogle:
		if c.TTS.GoogleCredsFile == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is required when TTS_PROVIDER=%s", c.TTS.Provider)
		}
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q (supported: %s, %s, %s)",
			c.TTS.Provider, tts.ProviderElevenLabs, tts.ProviderOpenAI, tts.ProviderGoogle)
	}

	if c.Storage.Remote() && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required when R2_ENDPOINT is set")
	}

	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
