package query

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/assist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_TopicOnly(t *testing.T) {
	tr := NewTranslator(time.UTC)
	req, err := tr.Translate(models.VideoQueryFields{Topic: "ted talk"})
	require.NoError(t, err)

	want := &SearchRequest{
		Collection:      "videolists",
		Query:           "ted talk",
		QueryBy:         []string{"titles", "tags", "description"},
		QueryByWeights:  []int{3, 2, 1},
		SplitJoinTokens: true,
		SortField:       "view_count",
		SortDesc:        true,
		NumTypos:        2,
		PerPage:         3,
		IncludeFields:   []string{"id", "titles", "thumbnail_height", "thumbnail_width", "thumbnail_url", "view_count", "released_date"},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("Translate() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "", req.Filter.String())
	assert.Equal(t, "view_count:desc", req.SortBy())
}

func TestTranslate_EmptyTopic(t *testing.T) {
	tr := NewTranslator(time.UTC)
	for _, topic := range []string{"", "   "} {
		req, err := tr.Translate(models.VideoQueryFields{Topic: topic, ViewCount: ">10"})
		assert.Nil(t, req)
		assert.ErrorIs(t, err, ErrEmptyTopic)
	}
}

func TestBuildFilter(t *testing.T) {
	tr := NewTranslator(time.UTC)
	tests := []struct {
		name   string
		fields models.VideoQueryFields
		want   string
	}{
		{"nothing", models.VideoQueryFields{Topic: "x"}, ""},
		{"exact views", models.VideoQueryFields{ViewCount: "1000000"}, "view_count:1000000"},
		{"less than", models.VideoQueryFields{ViewCount: "<23495"}, "view_count:<23495"},
		{"more than", models.VideoQueryFields{ViewCount: ">1240"}, "view_count:>1240"},
		{"thousands separators", models.VideoQueryFields{ViewCount: "> 1,000,000"}, "view_count:>1000000"},
		{"before only", models.VideoQueryFields{ReleaseDateBefore: "2023-12-31"}, "released_date:<=1703980800"},
		{"after only", models.VideoQueryFields{ReleaseDateAfter: "2023-01-01"}, "released_date:>=1672531200"},
		{
			"all fields",
			models.VideoQueryFields{ViewCount: ">1240", ReleaseDateBefore: "2023-12-31", ReleaseDateAfter: "2023-01-01"},
			"view_count:>1240 && released_date:<=1703980800 && released_date:>=1672531200",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tr.BuildFilter(tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestBuildFilter_SameDayBounds(t *testing.T) {
	tr := NewTranslator(time.UTC)
	f, err := tr.BuildFilter(models.VideoQueryFields{ReleaseDateBefore: "2023-05-12", ReleaseDateAfter: "2023-05-12"})
	require.NoError(t, err)
	require.Len(t, f, 2)
	assert.Equal(t, Clause{Field: "released_date", Op: OpLte, Value: 1683849600}, f[0])
	assert.Equal(t, Clause{Field: "released_date", Op: OpGte, Value: 1683849600}, f[1])
	assert.Equal(t, "released_date:<=1683849600 && released_date:>=1683849600", f.String())
}

func TestBuildFilter_LocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	tr := NewTranslator(loc)
	epoch, err := tr.Epoch("2023-05-12")
	require.NoError(t, err)
	assert.Equal(t, int64(1683849600+5*60*60), epoch)
}

func TestBuildFilter_DateFormatError(t *testing.T) {
	tr := NewTranslator(time.UTC)
	tests := []struct {
		name  string
		field string
		in    models.VideoQueryFields
	}{
		{"prose date", "release_date_before", models.VideoQueryFields{ReleaseDateBefore: "May 12, 2023"}},
		{"day first", "release_date_after", models.VideoQueryFields{ReleaseDateAfter: "12-05-2023"}},
		{"impossible day", "release_date_before", models.VideoQueryFields{ReleaseDateBefore: "2023-02-30"}},
		{"unix timestamp", "release_date_after", models.VideoQueryFields{ReleaseDateAfter: "1683849600"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tr.BuildFilter(tt.in)
			assert.Nil(t, f)
			var dfe *DateFormatError
			require.True(t, errors.As(err, &dfe), "got %v", err)
			assert.Equal(t, tt.field, dfe.Field)
		})
	}
}

func TestBuildFilter_ViewCountFormatError(t *testing.T) {
	tr := NewTranslator(time.UTC)
	for _, vc := range []string{"lots", ">=100", "<-5", "1e6", "100 || id:1", "more than 1240"} {
		t.Run(vc, func(t *testing.T) {
			_, err := tr.BuildFilter(models.VideoQueryFields{ViewCount: vc})
			var vce *ViewCountFormatError
			require.True(t, errors.As(err, &vce), "got %v", err)
			assert.Equal(t, vc, vce.Value)
		})
	}
}
