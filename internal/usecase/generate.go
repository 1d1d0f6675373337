package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// Generator turns (query, ranked context) into a grounded answer within a
// token budget and a wall-clock bound.
type Generator struct {
	llm       port.LLM
	tokenizer *analyzer.Tokenizer
	budget    int
	timeout   time.Duration
}

func NewGenerator(llm port.LLM, tokenizer *analyzer.Tokenizer, budget int, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		llm:       llm,
		tokenizer: tokenizer,
		budget:    budget,
		timeout:   timeout,
	}
}

// Generate answers the query from the given passages. Passages are used in
// the order given; whole passages that would overflow the budget are
// dropped from the tail (lowest similarity first, since the caller passes
// them similarity-ordered) and never appear in the answer's sources. With
// no usable context the model still runs on the query alone.
func (g *Generator) Generate(ctx context.Context, query string, passages []domain.ScoredPassage) (domain.Answer, error) {
	kept := g.fitBudget(query, passages)
	prompt := buildPrompt(query, kept)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Answer{}, fmt.Errorf("%w: inference exceeded %s", domain.ErrGenerationTimeout, g.timeout)
		}
		return domain.Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	sources := make([]domain.SourceRef, 0, len(kept))
	for _, sp := range kept {
		sources = append(sources, domain.SourceRef{
			Source:  sp.Passage.Source,
			Ordinal: sp.Passage.Ordinal,
			Score:   sp.Score,
		})
	}

	return domain.Answer{
		Text:     strings.TrimSpace(text),
		Sources:  sources,
		Grounded: len(kept) > 0,
	}, nil
}

// fitBudget keeps the longest prefix of the similarity-ordered context that
// fits the token budget together with the query.
func (g *Generator) fitBudget(query string, passages []domain.ScoredPassage) []domain.ScoredPassage {
	used := g.tokenizer.CountTokens(query)
	var kept []domain.ScoredPassage
	for _, sp := range passages {
		cost := g.tokenizer.CountTokens(sp.Passage.Text)
		if used+cost > g.budget {
			break
		}
		kept = append(kept, sp)
		used += cost
	}
	return kept
}

func buildPrompt(query string, passages []domain.ScoredPassage) string {
	if len(passages) == 0 {
		return fmt.Sprintf("Answer the question as best you can.\n\nQuestion:\n%s\n\nAnswer:\n", query)
	}

	var b strings.Builder
	b.WriteString("Answer using only the context.\n\nContext:\n")
	for _, sp := range passages {
		b.WriteString(sp.Passage.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion:\n")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:\n")
	return b.String()
}
