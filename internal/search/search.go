// Package search defines the video search index contract and the local engine
// that serves it from Bleve and SQLite.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
)

// ErrNotFound means the collection or index being searched does not exist.
// It is not a failure: callers treat it as zero hits.
var ErrNotFound = errors.New("search index not found")

// QueryError is any other failure reported by the index or its transport.
type QueryError struct {
	Status  int
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("search failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("search failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Index executes video search requests.
type Index interface {
	Search(ctx context.Context, req *query.SearchRequest) ([]models.VideoHit, error)
}
