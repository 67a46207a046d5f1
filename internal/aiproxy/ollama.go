package aiproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dreamware/ahnlich-go/internal/logging"
)

// OllamaVectorizer calls a local Ollama server's embeddings endpoint.
// Always returns exactly one embedding per input (Ollama has no
// multi-embedding-per-input notion, unlike the image/face fan-out case).
type OllamaVectorizer struct {
	endpoint   string
	model      string
	dimensions int
	client     *http.Client
}

func NewOllamaVectorizer(endpoint, model string, dimensions int) *OllamaVectorizer {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	return &OllamaVectorizer{
		endpoint:   endpoint,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OllamaVectorizer) Dimensions() int { return o.dimensions }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *OllamaVectorizer) Vectorize(ctx context.Context, raw []byte) ([]Embedding, error) {
	log := logging.Named("aiproxy.ollama")

	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: string(raw)})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Errorw("ollama returned non-OK status", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return []Embedding{{Vector: result.Embedding, EntryIndex: 0}}, nil
}
