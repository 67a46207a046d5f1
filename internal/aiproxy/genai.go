package aiproxy

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dreamware/ahnlich-go/internal/logging"
)

// GenAIVectorizer calls Google's Gemini embedding API.
type GenAIVectorizer struct {
	client     *genai.Client
	model      string
	dimensions int32
}

func NewGenAIVectorizer(ctx context.Context, apiKey, model string, dimensions int32) (*GenAIVectorizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dimensions == 0 {
		dimensions = 3072
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	return &GenAIVectorizer{client: client, model: model, dimensions: dimensions}, nil
}

func (g *GenAIVectorizer) Dimensions() int { return int(g.dimensions) }

func (g *GenAIVectorizer) Vectorize(ctx context.Context, raw []byte) ([]Embedding, error) {
	log := logging.Named("aiproxy.genai")

	contents := []*genai.Content{genai.NewContentFromText(string(raw), genai.RoleUser)}
	outDim := g.dimensions
	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outDim,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: embed content: %w", err)
	}
	if len(result.Embeddings) == 0 {
		log.Errorw("genai returned no embeddings", "model", g.model)
		return nil, fmt.Errorf("genai: no embeddings returned")
	}

	return []Embedding{{Vector: result.Embeddings[0].Values, EntryIndex: 0}}, nil
}
