package aiproxy

import (
	"context"
	"fmt"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/types"
)

// SetInput is one raw input a caller wants stored in a store, optionally
// carrying the original input for "store original" mode.
type SetInput struct {
	Raw           []byte
	Metadata      types.StoreValue
	StoreOriginal bool
}

// Proxy orchestrates Set/GetSimN against an engine.Handler by delegating
// embedding generation to a Vectorizer (spec §4.9). It never touches the
// engine's internals directly — everything flows through Handler's public
// operations, the same as any other client would.
type Proxy struct {
	handler    *engine.Handler
	vectorizer Vectorizer
}

func New(handler *engine.Handler, vectorizer Vectorizer) *Proxy {
	return &Proxy{handler: handler, vectorizer: vectorizer}
}

// Set vectorizes each input and upserts the resulting embeddings into
// store. When StoreOriginal is set, it first erases the input's previous
// embeddings via a del_pred scoped to MetadataKeyInput, per spec §4.9 step
// (ii); inputs stored without StoreOriginal carry no such key and nothing
// is erased for them.
func (p *Proxy) Set(ctx context.Context, store string, inputs []SetInput) (engine.UpsertCount, error) {
	var total engine.UpsertCount
	for _, in := range inputs {
		embeddings, err := p.vectorizer.Vectorize(ctx, in.Raw)
		if err != nil {
			return engine.UpsertCount{}, err
		}

		if in.StoreOriginal {
			cond := types.Equals(MetadataKeyInput, types.Binary(in.Raw))
			if _, err := p.handler.DelPredInStore(store, cond); err != nil {
				logging.Named("aiproxy").Debugw("del_pred scoped to input failed", "err", err)
			}
		}

		entries := make([]engine.Entry, 0, len(embeddings))
		for _, e := range embeddings {
			value := in.Metadata.Clone()
			if value == nil {
				value = types.StoreValue{}
			}
			if in.StoreOriginal {
				value[MetadataKeyInput] = types.Binary(in.Raw)
			}
			if len(embeddings) > 1 {
				value[MetadataKeyImageEntryIndex] = types.RawString(fmt.Sprintf("%d", e.EntryIndex))
			}
			entries = append(entries, engine.Entry{Key: types.StoreKey(e.Vector), Value: value})
		}

		count, err := p.handler.SetInStore(store, entries)
		if err != nil {
			return engine.UpsertCount{}, err
		}
		total.Inserted += count.Inserted
		total.Updated += count.Updated
	}
	return total, nil
}

// GetSimN vectorizes rawQuery (which must embed to exactly one vector) and
// delegates to the engine's similarity search pipeline.
func (p *Proxy) GetSimN(ctx context.Context, store string, rawQuery []byte, closestN int, algorithm string, cond *types.Condition) ([]engine.Scored, error) {
	embeddings, err := p.vectorizer.Vectorize(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	query, err := exactlyOneEmbedding(embeddings)
	if err != nil {
		return nil, err
	}
	return p.handler.GetSimInStore(store, types.StoreKey(query), closestN, algorithm, cond)
}
