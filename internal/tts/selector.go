package tts

import (
	"context"
	"fmt"
)

// Config selects and configures a synthesis backend.
type Config struct {
	Provider              Provider
	ElevenLabsAPIKey      string
	OpenAIAPIKey          string
	GoogleCredentialsFile string
	RequestsPerMinute     int
}

// New builds the synthesizer for the configured provider. The provider
// set is closed; unknown names are a configuration error.
func New(ctx context.Context, cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case ProviderElevenLabs:
		return NewElevenLabsSynthesizer(cfg.ElevenLabsAPIKey, cfg.RequestsPerMinute)
	case ProviderOpenAI:
		return NewOpenAISynthesizer(cfg.OpenAIAPIKey)
	case ProviderGoogle:
		return NewGoogleSynthesizer(ctx, cfg.GoogleCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown tts provider %q (supported: %s, %s, %s)",
			cfg.Provider, ProviderElevenLabs, ProviderOpenAI, ProviderGoogle)
	}
}
