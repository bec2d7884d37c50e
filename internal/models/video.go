// Package models defines core data structures for conversation turns, extracted intents, and video results.
package models

// Video is a catalog document as stored in the search index.
type Video struct {
	ID              string   `json:"id"`
	Titles          []string `json:"titles"`
	Tags            []string `json:"tags,omitempty"`
	Description     string   `json:"description,omitempty"`
	ThumbnailHeight int      `json:"thumbnail_height"`
	ThumbnailWidth  int      `json:"thumbnail_width"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	ViewCount       int64    `json:"view_count"`
	ReleasedDate    int64    `json:"released_date"` // epoch seconds
}

// VideoHit is the projection of an index document returned to clients.
// Fields pass through from the index unmodified.
type VideoHit struct {
	ID              string   `json:"id"`
	Titles          []string `json:"titles"`
	ThumbnailHeight int      `json:"thumbnail_height"`
	ThumbnailWidth  int      `json:"thumbnail_width"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	ViewCount       int64    `json:"view_count"`
	ReleasedDate    int64    `json:"released_date"`
}

// Hit projects a catalog video to the fields exposed in search results.
func (v *Video) Hit() VideoHit {
	return VideoHit{
		ID:              v.ID,
		Titles:          v.Titles,
		ThumbnailHeight: v.ThumbnailHeight,
		ThumbnailWidth:  v.ThumbnailWidth,
		ThumbnailURL:    v.ThumbnailURL,
		ViewCount:       v.ViewCount,
		ReleasedDate:    v.ReleasedDate,
	}
}

// VideoQueryFields are the search parameters extracted by the model on the video path.
// Empty strings mean the field was not mentioned.
type VideoQueryFields struct {
	Topic             string `json:"topic"`
	ViewCount         string `json:"view_count"`
	ReleaseDateBefore string `json:"release_date_before"`
	ReleaseDateAfter  string `json:"release_date_after"`
	// ReleasePeriod is the relative date phrase as the user wrote it ("last week").
	ReleasePeriod string `json:"release_period,omitempty"`
}
