// Package keyword provides the full-text video index behind the local search backend.
package keyword

import (
	"context"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
)

// VideoIndex defines video indexing and search operations.
type VideoIndex interface {
	Index(ctx context.Context, video *models.Video) error
	// Search executes req and returns matching IDs in rank order, at most req.PerPage.
	Search(ctx context.Context, req *query.SearchRequest) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of indexed videos.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}
