package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for enrichment.
const DefaultModelName = "gemini-2.5-flash"

// generateFunc sends a prompt to the model and returns its raw text answer.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiEnricher asks Gemini to pick a category for messages the keyword
// rules left as General.
type GeminiEnricher struct {
	generate  generateFunc
	validator *CategoryValidator
}

// NewGeminiEnricher creates an enricher backed by the Gemini API.
func NewGeminiEnricher(ctx context.Context, apiKey, model string) (*GeminiEnricher, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiEnricher: create genai client: %w", err)
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: prompt}},
			},
		}
		resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return resp.Text(), nil
	}

	return newGeminiEnricher(generate), nil
}

func newGeminiEnricher(generate generateFunc) *GeminiEnricher {
	return &GeminiEnricher{
		generate:  generate,
		validator: NewCategoryValidator(),
	}
}

// Enrich implements CategoryEnricher. Only General transactions are sent to
// the model.
func (g *GeminiEnricher) Enrich(ctx context.Context, tx *smsparser.ParsedTransaction) (smsparser.Category, error) {
	if tx.Category != smsparser.CategoryGeneral {
		return tx.Category, nil
	}

	raw, err := g.generate(ctx, buildPrompt(tx, g.validator.Names()))
	if err != nil {
		return tx.Category, fmt.Errorf("GeminiEnricher.Enrich: %w", err)
	}

	label := cleanModelLabel(raw)
	if label == "" {
		return tx.Category, fmt.Errorf("GeminiEnricher.Enrich: empty response from model")
	}

	category, err := g.validator.ValidateCategory(label)
	if err != nil {
		return tx.Category, fmt.Errorf("GeminiEnricher.Enrich: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("counterparty", tx.Counterparty).
		Str("category", string(category)).
		Msg("Category enriched by model")

	return category, nil
}

func buildPrompt(tx *smsparser.ParsedTransaction, categories []string) string {
	var b strings.Builder
	b.WriteString("You classify Indian bank and wallet debit notifications.\n\n")
	b.WriteString("Reply with EXACTLY one of these category names and nothing else:\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nIf unsure, reply General.\n\n")
	b.WriteString("Counterparty: " + tx.Counterparty + "\n")
	b.WriteString("Message: " + tx.RawText + "\n")
	return b.String()
}

// cleanModelLabel strips code fences, quotes and trailing punctuation the
// model may add around a single-word answer.
func cleanModelLabel(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	// Keep the first non-empty line only.
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			s = line
			break
		}
	}

	return strings.Trim(strings.TrimSpace(s), "\"'`.*")
}
