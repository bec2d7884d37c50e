// Package indexer ingests video catalog files into the local store and keyword index.
package indexer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/keyword"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/storage"
)

// Extensions lists the catalog file formats IndexFile accepts.
var Extensions = []string{".json", ".jsonl"}

// Indexer writes catalog videos to storage and the keyword index.
type Indexer struct {
	storage      storage.Store
	keywordIndex keyword.VideoIndex
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer over store and kw.
func NewIndexer(store storage.Store, kw keyword.VideoIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:      store,
		keywordIndex: kw,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexFile loads the catalog at path and replaces every video previously
// ingested from it. It returns the number of videos indexed.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	if !extensionAllowed(filepath.Ext(absPath)) {
		return 0, fmt.Errorf("unsupported catalog format %q", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	videos, err := LoadCatalog(absPath)
	if err != nil {
		return 0, err
	}
	if err := idx.IndexVideos(ctx, absPath, videos); err != nil {
		return 0, err
	}
	idx.logger.Info("Catalog indexed", zap.String("path", absPath), zap.Int("videos", len(videos)))
	return len(videos), nil
}

// IndexVideos replaces the videos recorded for source with videos.
func (idx *Indexer) IndexVideos(ctx context.Context, source string, videos []*models.Video) error {
	if _, err := idx.RemoveSource(ctx, source); err != nil {
		return err
	}
	if err := idx.storage.UpsertVideos(ctx, source, videos); err != nil {
		return fmt.Errorf("failed to store videos: %w", err)
	}
	for _, v := range videos {
		if err := idx.keywordIndex.Index(ctx, v); err != nil {
			return fmt.Errorf("failed to index video %s: %w", v.ID, err)
		}
	}
	return nil
}

// RemoveSource drops every video ingested from source and returns how many were removed.
func (idx *Indexer) RemoveSource(ctx context.Context, source string) (int64, error) {
	ids, err := idx.storage.IDsBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to list videos: %w", err)
	}
	for _, id := range ids {
		if err := idx.keywordIndex.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	n, err := idx.storage.DeleteBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete videos: %w", err)
	}
	if n > 0 {
		idx.logger.Debug("Removed catalog videos", zap.String("source", source), zap.Int64("videos", n))
	}
	return n, nil
}

// IngestFile indexes path for the catalog watcher.
func (idx *Indexer) IngestFile(ctx context.Context, path string) error {
	_, err := idx.IndexFile(ctx, path)
	return err
}

// RemoveFile drops the videos of a deleted catalog file.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	_, err = idx.RemoveSource(ctx, absPath)
	return err
}

// LoadCatalog reads videos from a JSON array (.json) or JSON lines (.jsonl)
// file. Rows without an ID get one derived from the file path and row number,
// so re-ingesting an unchanged file keeps its IDs stable.
func LoadCatalog(path string) ([]*models.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var videos []*models.Video
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		videos, err = decodeLines(data)
	} else {
		err = json.Unmarshal(data, &videos)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", filepath.Base(path), err)
	}

	out := videos[:0]
	for i, v := range videos {
		if v == nil {
			continue
		}
		if v.ID == "" {
			v.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"#"+strconv.Itoa(i))).String()
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeLines(data []byte) ([]*models.Video, error) {
	var videos []*models.Video
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var v models.Video
		if err := json.Unmarshal(text, &v); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		videos = append(videos, &v)
	}
	return videos, sc.Err()
}

func extensionAllowed(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
