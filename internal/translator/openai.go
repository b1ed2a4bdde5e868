package translator

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/pkg/log"
)

const (
	defaultModel      = openai.GPT4o
	defaultMaxWorkers = 5
	// defaultChunkChars bounds each translation request so the model
	// sees a manageable block of entries at a time.
	defaultChunkChars = 1000

	systemPrompt = "You are a subtitle translation assistant. Always return raw SRT content " +
		"without any markdown formatting, code blocks, or JSON wrapping."
)

// chatCompleter is the slice of the OpenAI client the translator uses.
// *openai.Client satisfies it; tests inject a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ Translator = (*OpenAITranslator)(nil)

// OpenAITranslator translates SRT chunks through the chat completions
// API, in parallel, and reassembles them in order.
type OpenAITranslator struct {
	client     chatCompleter
	model      string
	maxWorkers int
	chunkChars int
	notes      string
}

// Option configures an OpenAITranslator.
type Option func(*OpenAITranslator)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(t *OpenAITranslator) {
		if model != "" {
			t.model = model
		}
	}
}

// WithMaxWorkers bounds the number of chunks translated concurrently.
func WithMaxWorkers(n int) Option {
	return func(t *OpenAITranslator) {
		if n > 0 {
			t.maxWorkers = n
		}
	}
}

// WithNotes adds caller-provided guidance (tone, terminology) to every
// translation request.
func WithNotes(notes string) Option {
	return func(t *OpenAITranslator) {
		t.notes = notes
	}
}

// withChatCompleter injects a fake client for tests.
func withChatCompleter(cc chatCompleter) Option {
	return func(t *OpenAITranslator) {
		t.client = cc
	}
}

// withChunkChars shrinks chunks so tests can force multi-chunk paths.
func withChunkChars(n int) Option {
	return func(t *OpenAITranslator) {
		if n > 0 {
			t.chunkChars = n
		}
	}
}

// NewOpenAITranslator builds a translator on the given client.
func NewOpenAITranslator(client *openai.Client, opts ...Option) *OpenAITranslator {
	t := &OpenAITranslator{
		client:     client,
		model:      defaultModel,
		maxWorkers: defaultMaxWorkers,
		chunkChars: defaultChunkChars,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate chunks the entries, translates every chunk concurrently
// and re-parses the joined result. Timing comes back from the model,
// which is told to keep it; indices are renumbered from 1 regardless.
func (t *OpenAITranslator) Translate(
	ctx context.Context,
	entries []subtitle.Entry,
	sourceLang string,
	targetLang string,
) ([]subtitle.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries to translate")
	}

	chunks := chunkEntries(entries, t.chunkChars)
	log.Info("Translating %d entries in %d chunks (%s -> %s)", len(entries), len(chunks), sourceLang, targetLang)

	workers := t.maxWorkers
	if len(chunks) < workers {
		workers = len(chunks)
	}

	translated := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := t.translateChunk(gctx, chunk, sourceLang, targetLang)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			translated[i] = out
			log.Debug("Translated chunk %d/%d", i+1, len(chunks))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := subtitle.ParseEntries(strings.Join(translated, "\n\n"))
	if err != nil {
		return nil, fmt.Errorf("translated output is not valid SRT: %w", err)
	}

	for i := range result {
		result[i].Index = i + 1
	}
	return result, nil
}

func (t *OpenAITranslator) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: t.buildPrompt(chunk, sourceLang, targetLang)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

// buildPrompt asks for raw SRT back and, when pace data covers both
// languages, adds soft word/syllable targets so the narration lands
// near the original timing.
func (t *OpenAITranslator) buildPrompt(chunk, sourceLang, targetLang string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Translate the following subtitles from %s to %s. Keep the timing and structure as close as possible.\n\n",
		sourceLang, targetLang)

	if t.notes != "" {
		fmt.Fprintf(&b, "Translation notes: %s\n\n", t.notes)
	}

	b.WriteString("IMPORTANT: Return ONLY the translated SRT content. Do NOT wrap it in markdown code blocks, " +
		"JSON, or any other formatting. Return the raw SRT text exactly as it should appear in the subtitle file.\n")

	wordPct, syllablePct := languagePaceDiff(sourceLang, targetLang)
	if wordPct != 0 || syllablePct != 0 {
		fmt.Fprintf(&b, "\nTo help match the narrator speed in %s, aim for approximately:\n", targetLang)
		fmt.Fprintf(&b, "- %d%% %s words than the original\n", abs(wordPct), moreOrLess(wordPct))
		fmt.Fprintf(&b, "- %d%% %s syllables than the original\n", abs(syllablePct), moreOrLess(syllablePct))
		b.WriteString("\nThese are soft goals. Do not compromise the natural flow or clarity of the translation just to meet them. Focus on:\n")
		b.WriteString("- Preserving the original meaning and order of ideas\n")
		b.WriteString("- Keeping the emotional tone and rhythm\n")
		b.WriteString("- Ensuring the subtitle fits naturally within its time slot\n")
	}

	b.WriteString("\n")
	b.WriteString(chunk)
	b.WriteString("\n\nReturn the translated subtitles without any formatting wrappers:")
	return b.String()
}

// chunkEntries greedily packs formatted entry blocks into chunks of at
// most maxChars, never splitting a block.
func chunkEntries(entries []subtitle.Entry, maxChars int) []string {
	var chunks []string
	var current strings.Builder

	for _, entry := range entries {
		block := subtitle.FormatEntries([]subtitle.Entry{entry})
		if current.Len() > 0 && current.Len()+len(block) > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(block)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// stripCodeFence unwraps a markdown code block if the model added one
// despite instructions.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl != -1 {
			text = text[nl+1:]
		} else {
			text = text[3:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func moreOrLess(pct int) string {
	if pct < 0 {
		return "less"
	}
	return "more"
}
