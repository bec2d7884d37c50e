// Package storage persists the video catalog that backs the local search index.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/assist/internal/models"
)

// ErrNotFound is returned when a video ID is not in the catalog.
var ErrNotFound = errors.New("video not found")

// Store defines video catalog persistence operations.
type Store interface {
	// UpsertVideos inserts or replaces videos, recording source as their origin.
	UpsertVideos(ctx context.Context, source string, videos []*models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	// GetVideos returns the videos for ids in the same order, skipping unknown IDs.
	GetVideos(ctx context.Context, ids []string) ([]*models.Video, error)
	// IDsBySource lists the videos ingested from source.
	IDsBySource(ctx context.Context, source string) ([]string, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	CountVideos(ctx context.Context) (int64, error)
	Close() error
}
