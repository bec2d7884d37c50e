package search

import (
	"context"

	"github.com/hyperjump/assist/internal/keyword"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
	"github.com/hyperjump/assist/internal/storage"
)

// Engine serves search requests from the local keyword index, hydrating hits
// from the catalog store.
type Engine struct {
	storage      storage.Store
	keywordIndex keyword.VideoIndex
}

// NewEngine creates a local search engine with the given dependencies.
func NewEngine(store storage.Store, keywordIndex keyword.VideoIndex) *Engine {
	return &Engine{storage: store, keywordIndex: keywordIndex}
}

// Search runs req against the keyword index. An empty index reports ErrNotFound.
func (e *Engine) Search(ctx context.Context, req *query.SearchRequest) ([]models.VideoHit, error) {
	count, err := e.keywordIndex.DocCount()
	if err != nil {
		return nil, &QueryError{Message: "failed to read index size", Err: err}
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	results, err := e.keywordIndex.Search(ctx, req)
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Err: err}
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	videos, err := e.storage.GetVideos(ctx, ids)
	if err != nil {
		return nil, &QueryError{Message: "failed to load videos", Err: err}
	}
	hits := make([]models.VideoHit, 0, len(videos))
	for _, v := range videos {
		hits = append(hits, v.Hit())
	}
	return hits, nil
}

// Stats reports the catalog size.
func (e *Engine) Stats(ctx context.Context) (videos int64, indexed uint64, err error) {
	if videos, err = e.storage.CountVideos(ctx); err != nil {
		return 0, 0, err
	}
	if indexed, err = e.keywordIndex.DocCount(); err != nil {
		return 0, 0, err
	}
	return videos, indexed, nil
}
