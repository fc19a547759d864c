package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text   string
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiNormalize(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "```json\n" + `{
		"optimized_query": "software engineer intern",
		"location": "Bengaluru, Karnataka",
		"keywords": ["software", "engineer"],
		"should_add_intern": false,
		"search_strategy": "Added intern suffix"
	}` + "\n```"}
	g := NewGeminiWithGenerator(gen, "", 0.3)
	q, err := g.Normalize(context.Background(), "software engineer", "bangalore")
	require.NoError(t, err)
	require.Equal(t, "software engineer intern", q.OptimizedQuery)
	require.Equal(t, "Bengaluru, Karnataka", q.CanonicalLocation)
	require.Equal(t, []string{"software", "engineer"}, q.Keywords)
	require.False(t, q.AddInternSuffix)
	require.Equal(t, "Added intern suffix", q.Strategy)

	require.Equal(t, DefaultGeminiModel, gen.model)
	require.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Contains(t, gen.prompt, "User query: software engineer")
	require.Contains(t, gen.prompt, "User location: bangalore")
}

func TestGeminiNormalizeErrors(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiWithGenerator(&fakeGenerator{err: errors.New("unavailable")}, "m", 0).
		Normalize(context.Background(), "go", "")
	require.ErrorContains(t, err, "unavailable")

	_, err = NewGeminiWithGenerator(&fakeGenerator{text: "not json"}, "m", 0).
		Normalize(context.Background(), "go", "")
	require.ErrorContains(t, err, "decode optimizer answer")

	_, err = NewGeminiWithGenerator(&fakeGenerator{text: `{"optimized_query": ""}`}, "m", 0).
		Normalize(context.Background(), "go", "")
	require.ErrorIs(t, err, ErrEmptyOptimization)
}

func TestParseAnswerDefaultsInternSuffix(t *testing.T) {
	t.Parallel()

	q, err := parseAnswer(`{"optimized_query": "go developer"}`, "go developer")
	require.NoError(t, err)
	require.True(t, q.AddInternSuffix)
	require.Contains(t, buildPrompt("go", ""), "User location: Not specified")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(context.Background(), GeminiConfig{})
	require.Error(t, err)
}
