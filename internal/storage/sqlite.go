package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/assist/internal/models"
)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		titles TEXT NOT NULL,
		tags TEXT NOT NULL,
		description TEXT,
		thumbnail_height INTEGER,
		thumbnail_width INTEGER,
		thumbnail_url TEXT,
		view_count INTEGER NOT NULL DEFAULT 0,
		released_date INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_videos_source ON videos(source);
	`
	_, err := db.Exec(schema)
	return err
}

const videoColumns = `id, titles, tags, description, thumbnail_height, thumbnail_width, thumbnail_url, view_count, released_date`

// UpsertVideos inserts or replaces videos in a single transaction.
func (s *SQLiteStorage) UpsertVideos(ctx context.Context, source string, videos []*models.Video) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO videos (`+videoColumns+`, source, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   titles = excluded.titles, tags = excluded.tags, description = excluded.description,
		   thumbnail_height = excluded.thumbnail_height, thumbnail_width = excluded.thumbnail_width,
		   thumbnail_url = excluded.thumbnail_url, view_count = excluded.view_count,
		   released_date = excluded.released_date, source = excluded.source,
		   updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, v := range videos {
		titles, err := json.Marshal(nonNil(v.Titles))
		if err != nil {
			return fmt.Errorf("failed to marshal titles: %w", err)
		}
		tags, err := json.Marshal(nonNil(v.Tags))
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			v.ID, string(titles), string(tags), v.Description,
			v.ThumbnailHeight, v.ThumbnailWidth, v.ThumbnailURL,
			v.ViewCount, v.ReleasedDate, source, now,
		); err != nil {
			return fmt.Errorf("failed to upsert video %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// GetVideo returns a video by ID.
func (s *SQLiteStorage) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v, err
}

// GetVideos returns videos in the order of ids.
func (s *SQLiteStorage) GetVideos(ctx context.Context, ids []string) ([]*models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Video, len(ids))
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Video, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// IDsBySource lists video IDs ingested from source.
func (s *SQLiteStorage) IDsBySource(ctx context.Context, source string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM videos WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteBySource removes all videos ingested from source.
func (s *SQLiteStorage) DeleteBySource(ctx context.Context, source string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountVideos returns the total number of videos.
func (s *SQLiteStorage) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row scanner) (*models.Video, error) {
	var v models.Video
	var titles, tags string
	var description, thumbnailURL sql.NullString
	var height, width sql.NullInt64
	if err := row.Scan(&v.ID, &titles, &tags, &description, &height, &width, &thumbnailURL, &v.ViewCount, &v.ReleasedDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(titles), &v.Titles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal titles: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &v.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	v.Description = description.String
	v.ThumbnailURL = thumbnailURL.String
	v.ThumbnailHeight = int(height.Int64)
	v.ThumbnailWidth = int(width.Int64)
	return &v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
