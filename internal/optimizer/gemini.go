package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// Generator is the part of the genai client the optimizer calls.
type Generator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini optimizer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Gemini asks a Gemini model for a JSON rewrite of the query.
type Gemini struct {
	gen         Generator
	model       string
	temperature float32
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewGeminiWithGenerator(client.Models, cfg.Model, cfg.Temperature), nil
}

// NewGeminiWithGenerator builds the optimizer on an existing generator.
func NewGeminiWithGenerator(gen Generator, model string, temperature float32) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{gen: gen, model: model, temperature: temperature}
}

type geminiAnswer struct {
	OptimizedQuery  string   `json:"optimized_query"`
	Location        string   `json:"location"`
	Keywords        []string `json:"keywords"`
	ShouldAddIntern *bool    `json:"should_add_intern"`
	SearchStrategy  string   `json:"search_strategy"`
}

// Normalize implements Optimizer.
func (g *Gemini) Normalize(ctx context.Context, rawQuery, rawLocation string) (opportunity.NormalizedQuery, error) {
	resp, err := g.gen.GenerateContent(ctx, g.model, genai.Text(buildPrompt(rawQuery, rawLocation)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		SystemInstruction: genai.NewContentFromText(
			"You are a job search query optimizer. Always respond with valid JSON only.", genai.RoleUser),
	})
	if err != nil {
		return opportunity.NormalizedQuery{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseAnswer(resp.Text(), rawQuery)
}

func parseAnswer(text, rawQuery string) (opportunity.NormalizedQuery, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var answer geminiAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &answer); err != nil {
		return opportunity.NormalizedQuery{}, fmt.Errorf("decode optimizer answer: %w", err)
	}
	query := strings.TrimSpace(answer.OptimizedQuery)
	if query == "" {
		return opportunity.NormalizedQuery{}, ErrEmptyOptimization
	}
	addIntern := needsInternSuffix(rawQuery)
	if answer.ShouldAddIntern != nil {
		addIntern = *answer.ShouldAddIntern
	}
	return opportunity.NormalizedQuery{
		OptimizedQuery:    query,
		CanonicalLocation: strings.TrimSpace(answer.Location),
		Keywords:          answer.Keywords,
		AddInternSuffix:   addIntern,
		Strategy:          answer.SearchStrategy,
	}, nil
}

func buildPrompt(query, location string) string {
	if strings.TrimSpace(location) == "" {
		location = "Not specified"
	}
	return fmt.Sprintf(`Optimize this internship search for job boards.

User query: %s
User location: %s

Return a JSON object with these fields:
  "optimized_query": concise search text of 2-4 role or skill terms, without the location
  "location": normalized location, "City, State" for Indian cities (e.g. "Bengaluru, Karnataka"), "Remote" for remote work
  "keywords": list of the important terms
  "should_add_intern": true when the query does not already mention intern or internship
  "search_strategy": one sentence explaining the rewrite

Example: query "software engineer" with location "bangalore" gives optimized_query "software engineer intern" and location "Bengaluru, Karnataka".`, query, location)
}
