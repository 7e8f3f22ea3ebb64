// ABOUTME: Offline generator that answers by quoting the best matching context sentence
// ABOUTME: Lets the benchmark run without a chat model while exercising the full pipeline
package ragas

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/models"
)

var (
	passageHeader   = regexp.MustCompile(`(?m)^\[(\d+)\] \([^\n]*\)\n`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
	wordPattern     = regexp.MustCompile(`\p{L}+|\p{N}+`)
)

// Passage is one numbered context passage from a prompt
type Passage struct {
	Number int
	Text   string
}

// ParsePrompt splits the final user message into its passages and question
func ParsePrompt(messages []models.Message) ([]Passage, string) {
	if len(messages) == 0 {
		return nil, ""
	}
	content := messages[len(messages)-1].Content

	question := ""
	if i := strings.LastIndex(content, "Question: "); i >= 0 {
		question = strings.TrimSpace(content[i+len("Question: "):])
		content = content[:i]
	}

	var passages []Passage
	headers := passageHeader.FindAllStringSubmatchIndex(content, -1)
	for i, h := range headers {
		end := len(content)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		n, err := strconv.Atoi(content[h[2]:h[3]])
		if err != nil {
			continue
		}
		passages = append(passages, Passage{Number: n, Text: strings.TrimSpace(content[h[1]:end])})
	}
	return passages, question
}

// ExtractiveGenerator quotes the sentence sharing the most words with the question
type ExtractiveGenerator struct{}

// Generate answers from the passages in the prompt with a single citation
func (ExtractiveGenerator) Generate(_ context.Context, messages []models.Message) (string, error) {
	passages, question := ParsePrompt(messages)
	if len(passages) == 0 {
		return "I don't know based on the provided documents.", nil
	}

	qTokens := tokenSet(question)
	best, bestScore, bestPassage := "", -1, 0
	for _, p := range passages {
		for _, s := range sentencePattern.FindAllString(p.Text, -1) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if score := overlap(qTokens, s); score > bestScore {
				best, bestScore, bestPassage = s, score, p.Number
			}
		}
	}
	return fmt.Sprintf("%s [%d]", best, bestPassage), nil
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for t := range tokenSet(sentence) {
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}

// recordingGenerator remembers the passages of the most recent prompt
type recordingGenerator struct {
	inner core.Generator

	mu       sync.Mutex
	passages []Passage
}

func (r *recordingGenerator) Generate(ctx context.Context, messages []models.Message) (string, error) {
	passages, _ := ParsePrompt(messages)
	r.mu.Lock()
	r.passages = passages
	r.mu.Unlock()
	return r.inner.Generate(ctx, messages)
}

// lastContext returns the passage texts of the most recent prompt
func (r *recordingGenerator) lastContext() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.passages))
	for i, p := range r.passages {
		out[i] = p.Text
	}
	return out
}
