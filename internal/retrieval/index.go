// Package retrieval builds a throwaway similarity index over the chunks of a
// single document. Each Build call owns its own in-memory chromem-go
// database, so concurrent requests never see each other's chunks.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dharitri/backend/internal/llm"
	"github.com/philippgille/chromem-go"
	"github.com/samber/lo"
)

// DefaultK is the number of chunks returned by a query.
const DefaultK = 4

// ErrEmpty is returned when Build is given no chunks.
var ErrEmpty = errors.New("no chunks to index")

// Index is a request-scoped vector index.
type Index struct {
	collection *chromem.Collection
}

// Build embeds chunks in one batch and indexes them.
func Build(ctx context.Context, embedder llm.Embedder, chunks []string) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmpty
	}

	vectors, err := embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	queryEmbed := func(ctx context.Context, text string) ([]float32, error) {
		v, err := embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(v) != 1 {
			return nil, llm.ErrEmptyResponse
		}
		return v[0], nil
	}

	collection, err := chromem.NewDB().CreateCollection("report", nil, queryEmbed)
	if err != nil {
		return nil, err
	}

	docs := lo.Map(chunks, func(c string, i int) chromem.Document {
		return chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c,
			Embedding: vectors[i],
			Metadata:  map[string]string{"chunk": strconv.Itoa(i)},
		}
	})
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	return &Index{collection: collection}, nil
}

// Len is the number of indexed chunks.
func (x *Index) Len() int {
	return x.collection.Count()
}

// Query returns up to k chunk texts, most similar first. k is clamped to
// the number of indexed chunks; k <= 0 means DefaultK.
func (x *Index) Query(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultK
	}
	k = min(k, x.collection.Count())

	results, err := x.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	return lo.Map(results, func(r chromem.Result, _ int) string {
		return r.Content
	}), nil
}
