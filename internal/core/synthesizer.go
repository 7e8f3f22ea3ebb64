// ABOUTME: AnswerSynthesizer turns retrieved chunks and recent turns into a grounded answer
// ABOUTME: Builds a size-bounded chat prompt, calls the generator and attributes cited sources
package core

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/harper/ragchat/internal/models"
)

const (
	// DefaultMaxPromptChars bounds the total characters sent to the generator
	DefaultMaxPromptChars = 12000

	DefaultSystemPrompt = `You are a helpful assistant that answers questions about the user's documents.
Answer only from the numbered context passages. Cite the passages you used with their number in square brackets, for example [1] or [2][3].
If the context does not contain the answer, say that the documents do not cover it. Be concise.`

	// NoGroundingAnswer is returned without calling the generator when nothing was retrieved
	NoGroundingAnswer = "I couldn't find anything in the indexed documents to ground an answer to that question."
)

var citationPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// SynthesizerConfig holds prompt and timeout settings
type SynthesizerConfig struct {
	SystemPrompt   string
	MaxPromptChars int // 0 disables the bound
	Timeout        time.Duration
}

// Synthesizer assembles prompts and produces answers with source attribution
type Synthesizer struct {
	generator Generator
	config    SynthesizerConfig
}

// NewSynthesizer creates a Synthesizer, filling in the default system prompt when none is set
func NewSynthesizer(generator Generator, cfg SynthesizerConfig) *Synthesizer {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Synthesizer{generator: generator, config: cfg}
}

// SystemPrompt returns the instruction sent first in every prompt
func (s *Synthesizer) SystemPrompt() string {
	return s.config.SystemPrompt
}

// Synthesize answers question from chunks and turns. It returns the answer and the
// subset of chunks it was grounded on, in retrieval order. With no chunks it returns
// NoGroundingAnswer and no sources without calling the generator.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []models.ScoredChunk, turns []models.Turn) (string, []models.SourceRef, error) {
	if len(chunks) == 0 {
		return NoGroundingAnswer, []models.SourceRef{}, nil
	}

	messages, included := s.BuildMessages(question, chunks, turns)
	answer, err := generate(ctx, s.generator, s.config.Timeout, messages)
	if err != nil {
		return "", nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", nil, fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	return answer, citedSources(answer, chunks[:included]), nil
}

// BuildMessages assembles the chat transcript and reports how many chunks made it
// into the context. When the prompt exceeds MaxPromptChars the oldest turns are
// dropped first, then chunk texts are cut starting from the lowest ranked chunk.
// The system prompt and question are never cut.
func (s *Synthesizer) BuildMessages(question string, chunks []models.ScoredChunk, turns []models.Turn) ([]models.Message, int) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}

	if limit := s.config.MaxPromptChars; limit > 0 {
		size := func() int {
			n := runeLen(s.config.SystemPrompt) + runeLen(contextMessage(question, chunks, texts))
			for _, t := range turns {
				n += runeLen(t.Question) + runeLen(t.Answer)
			}
			return n
		}

		for len(turns) > 0 && size() > limit {
			turns = turns[1:]
		}
		for i := len(texts) - 1; i > 0 && size() > limit; i-- {
			excess := size() - limit
			runes := []rune(texts[i])
			if excess >= len(runes) {
				texts = texts[:i]
				continue
			}
			texts[i] = string(runes[:len(runes)-excess])
		}
		// The top chunk is trimmed but always kept so the answer has some grounding.
		if over := size() - limit; over > 0 {
			runes := []rune(texts[0])
			texts[0] = string(runes[:max(0, len(runes)-over)])
		}
	}

	messages := make([]models.Message, 0, 2+2*len(turns))
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: s.config.SystemPrompt})
	for _, t := range turns {
		messages = append(messages,
			models.Message{Role: models.RoleUser, Content: t.Question},
			models.Message{Role: models.RoleAssistant, Content: t.Answer},
		)
	}
	messages = append(messages, models.Message{Role: models.RoleUser, Content: contextMessage(question, chunks, texts)})
	return messages, len(texts)
}

// contextMessage renders numbered passages followed by the question
func contextMessage(question string, chunks []models.ScoredChunk, texts []string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("[%d] (%s)\n%s\n\n", i+1, chunks[i].Chunk.ID, text))
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

// citedSources returns the chunks referenced as [n] in answer, or all of them if none are cited
func citedSources(answer string, chunks []models.ScoredChunk) []models.SourceRef {
	cited := make(map[int]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil && n >= 1 && n <= len(chunks) {
				cited[n-1] = true
			}
		}
	}

	sources := make([]models.SourceRef, 0, len(chunks))
	for i, c := range chunks {
		if len(cited) == 0 || cited[i] {
			sources = append(sources, models.SourceFor(c))
		}
	}
	return sources
}

// LoadSystemPrompt reads a system prompt file, returning DefaultSystemPrompt for an empty path
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return DefaultSystemPrompt, nil
	}
	return prompt, nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
