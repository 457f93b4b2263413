// Package study turns study material into keyword entries and flashcard
// drafts using an LLM provider.
package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/studyaid/internal/highlight"
	"github.com/ziadkadry99/studyaid/internal/llm"
)

var (
	// ErrAnalysisFailed wraps any failure to extract keywords.
	ErrAnalysisFailed = errors.New("failed to analyze study material")
	// ErrGenerationFailed wraps any failure to generate flashcards.
	ErrGenerationFailed = errors.New("failed to generate flashcards")
	// ErrContentTooLarge is returned before calling the provider when the
	// material would not fit the model's context.
	ErrContentTooLarge = errors.New("study material is too large to analyze")
)

const (
	maxTokens   = 2000
	temperature = 0.7

	// maxContentTokens bounds the estimated size of a single material.
	maxContentTokens = 100_000
)

// CardDraft is a generated flashcard that has not been stored yet.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Analyzer extracts keywords and flashcards through an llm.Provider.
type Analyzer struct {
	provider llm.Provider
	model    string
	log      zerolog.Logger
}

// NewAnalyzer returns an Analyzer. model may be empty to use the
// provider's default.
func NewAnalyzer(provider llm.Provider, model string, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		model:    model,
		log:      log.With().Str("component", "study").Logger(),
	}
}

// ExtractKeywords asks the model for the most important concepts in
// content. Entries with an empty keyword are dropped; details are trimmed.
func (a *Analyzer) ExtractKeywords(ctx context.Context, content string) ([]highlight.KeywordEntry, error) {
	if est := llm.EstimateTokens(content); est > maxContentTokens {
		return nil, fmt.Errorf("%w: ~%d tokens", ErrContentTooLarge, est)
	}

	var out struct {
		Keywords []highlight.KeywordEntry `json:"keywords"`
	}
	if err := a.completeJSON(ctx, "extract_keywords", keywordSystemPrompt, content, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	keywords := make([]highlight.KeywordEntry, 0, len(out.Keywords))
	for _, k := range out.Keywords {
		k.Keyword = strings.TrimSpace(k.Keyword)
		if k.Keyword == "" {
			continue
		}
		k.Detail = strings.TrimSpace(k.Detail)
		keywords = append(keywords, k)
	}
	return keywords, nil
}

// GenerateFlashcards asks the model for one question/answer card per
// keyword. Cards missing either side are dropped.
func (a *Analyzer) GenerateFlashcards(ctx context.Context, keywords []highlight.KeywordEntry) ([]CardDraft, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords given", ErrGenerationFailed)
	}

	var out struct {
		Flashcards []CardDraft `json:"flashcards"`
	}
	if err := a.completeJSON(ctx, "generate_flashcards", flashcardSystemPrompt, FormatKeywords(keywords), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	cards := make([]CardDraft, 0, len(out.Flashcards))
	for _, c := range out.Flashcards {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			continue
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// FormatKeywords renders keywords as the flashcard prompt expects:
// "Keyword: X\nDetail: Y" blocks separated by blank lines.
func FormatKeywords(keywords []highlight.KeywordEntry) string {
	blocks := make([]string, len(keywords))
	for i, k := range keywords {
		blocks[i] = fmt.Sprintf("Keyword: %s\nDetail: %s", k.Keyword, k.Detail)
	}
	return strings.Join(blocks, "\n\n")
}

func (a *Analyzer) completeJSON(ctx context.Context, op, system, user string, dst any) error {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		a.log.Error().Err(err).Str("op", op).Str("provider", a.provider.Name()).Msg("completion failed")
		return err
	}

	a.log.Debug().
		Str("op", op).
		Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Float64("cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)).
		Msg("completion")

	body := strings.TrimSpace(resp.Content)
	if body == "" {
		body = "{}"
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
