package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

var openAIVoices = map[string]bool{
	"alloy":   true,
	"echo":    true,
	"fable":   true,
	"onyx":    true,
	"nova":    true,
	"shimmer": true,
}

var openAIModels = map[string]bool{
	"tts-1":    true,
	"tts-1-hd": true,
}

// OpenAISynthesizer uses the OpenAI speech API.
type OpenAISynthesizer struct {
	client *openai.Client
}

func NewOpenAISynthesizer(apiKey string) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return &OpenAISynthesizer{client: openai.NewClient(apiKey)}, nil
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice, model string) ([]byte, error) {
	if !openAIVoices[voice] {
		return nil, fmt.Errorf("invalid openai voice %q", voice)
	}
	if !openAIModels[model] {
		model = string(openai.TTSModel1)
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(model),
		Input: text,
		Voice: openai.SpeechVoice(voice),
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	return audio, nil
}
