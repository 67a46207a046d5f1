// Package aiproxy implements the AI-embedding proxy's engine-facing contract
// (spec §4.9): a Vectorizer turns raw input into one or more embeddings, and
// Proxy wires that into Set/GetSimN calls against an engine.Handler. The
// proxy is an external collaborator per spec §1 — this package models only
// the orchestration, never model loading or preprocessing.
package aiproxy

import (
	"context"

	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Reserved metadata keys the proxy assigns meaning to; the engine treats
// them as ordinary metadata (spec §6).
const (
	MetadataKeyInput           = "ahnlich_raw_input"
	MetadataKeyImageEntryIndex = "ahnlich_image_entry_index"
)

// Embedding is one vectorized result: the computed key plus, for inputs
// that fan out into several embeddings (e.g. faces in an image), the index
// of this embedding within that input.
type Embedding struct {
	Vector     []float32
	EntryIndex int
}

// Vectorizer turns a raw input into zero or more embeddings. An image may
// yield 0..N face embeddings; a text input normally yields exactly one.
type Vectorizer interface {
	Vectorize(ctx context.Context, raw []byte) ([]Embedding, error)
	Dimensions() int
}

// exactlyOneEmbedding enforces spec §4.9's GetSimN rule: a query input that
// vectorizes to anything but one embedding never reaches the engine.
func exactlyOneEmbedding(embeddings []Embedding) ([]float32, error) {
	if len(embeddings) != 1 {
		return nil, vdberr.InvalidArgument("query input must embed to exactly one vector")
	}
	return embeddings[0].Vector, nil
}
