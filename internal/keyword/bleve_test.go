package keyword

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seed(t *testing.T, idx *BleveIndex, videos ...*models.Video) {
	t.Helper()
	for _, v := range videos {
		if err := idx.Index(context.Background(), v); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}
}

func translate(t *testing.T, fields models.VideoQueryFields) *query.SearchRequest {
	t.Helper()
	req, err := query.NewTranslator(time.UTC).Translate(fields)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	return req
}

func ids(results []*Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

var catalog = []*models.Video{
	{ID: "a", Titles: []string{"Ted talk on creativity"}, ViewCount: 500, ReleasedDate: 1672531200},    // 2023-01-01
	{ID: "b", Titles: []string{"Another ted talk"}, ViewCount: 9000, ReleasedDate: 1683849600},         // 2023-05-12
	{ID: "c", Tags: []string{"ted"}, Description: "cooking", ViewCount: 100, ReleasedDate: 1704067200}, // 2024-01-01
	{ID: "d", Titles: []string{"Ted talk classics"}, ViewCount: 20000, ReleasedDate: 1609459200},       // 2021-01-01
	{ID: "e", Titles: []string{"Gardening basics"}, ViewCount: 1000000, ReleasedDate: 1683849600},
}

func TestBleveIndex_SortsByViewCountAndCapsPage(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx, catalog...)

	results, err := idx.Search(context.Background(), translate(t, models.VideoQueryFields{Topic: "ted"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := ids(results)
	want := []string{"d", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestBleveIndex_FuzzyMatch(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx, catalog...)

	results, err := idx.Search(context.Background(), translate(t, models.VideoQueryFields{Topic: "gardning"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "e" {
		t.Errorf("expected typo to match e, got %v", ids(results))
	}
}

func TestBleveIndex_Filters(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx, catalog...)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields models.VideoQueryFields
		want   []string
	}{
		{"less than", models.VideoQueryFields{Topic: "ted", ViewCount: "<9000"}, []string{"a", "c"}},
		{"more than", models.VideoQueryFields{Topic: "ted", ViewCount: ">9000"}, []string{"d"}},
		{"exact", models.VideoQueryFields{Topic: "ted", ViewCount: "9000"}, []string{"b"}},
		{"same day", models.VideoQueryFields{Topic: "ted", ReleaseDateBefore: "2023-05-12", ReleaseDateAfter: "2023-05-12"}, []string{"b"}},
		{"year 2023", models.VideoQueryFields{Topic: "ted", ReleaseDateBefore: "2023-12-31", ReleaseDateAfter: "2023-01-01"}, []string{"b", "a"}},
		{"nothing", models.VideoQueryFields{Topic: "ted", ViewCount: ">99999999"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search(ctx, translate(t, tt.fields))
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			got := ids(results)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestBleveIndex_DeleteAndCount(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx, catalog...)

	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != uint64(len(catalog)) {
		t.Errorf("DocCount = %d, want %d", n, len(catalog))
	}

	if err := idx.Delete(context.Background(), "e"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, _ := idx.Search(context.Background(), translate(t, models.VideoQueryFields{Topic: "gardening"}))
	if len(results) != 0 {
		t.Errorf("deleted video still returned: %v", ids(results))
	}
}

func TestNewBleveIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, idx, catalog[0])
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	n, _ := reopened.DocCount()
	if n != 1 {
		t.Errorf("expected 1 doc after reopen, got %d", n)
	}
}
