package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smarthealth/storefront/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	ErrSuggestionsDisabled = errors.New("recipe suggestions are not configured")
	ErrInvalidSuggestion   = errors.New("model returned no usable recipes")
	ErrNoProducts          = errors.New("at least one product name is required")
)

const maxSuggestions = 3

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float32) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrSuggestionsDisabled
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, temperature: temperature}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Suggestion is a model-authored recipe, validated before it leaves this package.
type Suggestion struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Ingredients  []string          `json:"ingredients"`
	Instructions []string          `json:"instructions"`
	Category     string            `json:"category"`
	Difficulty   domain.Difficulty `json:"difficulty"`
}

// Suggester asks a Generator for recipe ideas built around product names.
type Suggester struct {
	gen Generator
}

// NewSuggester returns a Suggester; a nil generator disables suggestions.
func NewSuggester(gen Generator) *Suggester {
	return &Suggester{gen: gen}
}

func (s *Suggester) Enabled() bool {
	return s != nil && s.gen != nil
}

func (s *Suggester) Suggest(ctx context.Context, products []string) ([]Suggestion, error) {
	if !s.Enabled() {
		return nil, ErrSuggestionsDisabled
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoProducts
	}

	raw, err := s.gen.Generate(ctx, buildPrompt(names))
	if err != nil {
		zap.L().Error("recipe suggestion request failed",
			zap.String("namespace", "recipes"),
			zap.Error(err),
		)
		return nil, err
	}
	return ParseSuggestions(raw)
}

func buildPrompt(products []string) string {
	var sb strings.Builder
	sb.WriteString("Suggest up to ")
	sb.WriteString(fmt.Sprint(maxSuggestions))
	sb.WriteString(" home recipes that use these grocery products: ")
	sb.WriteString(strings.Join(products, ", "))
	sb.WriteString(".\nReply with a JSON array only. Each element must have the keys ")
	sb.WriteString(`"name", "description", "ingredients" (array of strings), "instructions" (array of strings), `)
	sb.WriteString(`"category" (comma separated tags) and "difficulty" (one of easy, medium, hard).`)
	return sb.String()
}

// ParseSuggestions decodes model output into validated suggestions. The
// output may be a bare array, an object with a "recipes" array, or either
// wrapped in a markdown code fence. Entries without a name or ingredients,
// or with an unknown difficulty, are dropped.
func ParseSuggestions(raw string) ([]Suggestion, error) {
	raw = stripFence(raw)

	var list []Suggestion
	if err := json.UnmarshalFromString(raw, &list); err != nil {
		var wrapped struct {
			Recipes []Suggestion `json:"recipes"`
		}
		if err2 := json.UnmarshalFromString(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSuggestion, err)
		}
		list = wrapped.Recipes
	}

	out := make([]Suggestion, 0, len(list))
	for _, s := range list {
		s.Name = strings.TrimSpace(s.Name)
		s.Ingredients = compact(s.Ingredients)
		s.Instructions = compact(s.Instructions)
		s.Difficulty = domain.Difficulty(strings.ToLower(strings.TrimSpace(string(s.Difficulty))))
		if s.Difficulty == "" {
			s.Difficulty = domain.DifficultyMedium
		}
		if s.Name == "" || len(s.Ingredients) == 0 || !s.Difficulty.Valid() {
			continue
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrInvalidSuggestion
	}
	return out, nil
}

func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
