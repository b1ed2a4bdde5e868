// Package tts provides speech synthesis behind a single interface with
// a closed set of provider implementations chosen at configuration
// time.
package tts

import "context"

// Synthesizer converts text to speech. Implementations return encoded
// MP3 bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, model string) ([]byte, error)
}

// Provider names the supported synthesis backends.
type Provider string

const (
	ProviderElevenLabs Provider = "elevenlabs"
	ProviderOpenAI     Provider = "openai"
	ProviderGoogle     Provider = "google"
)
