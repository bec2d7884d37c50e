package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
)

// BleveIndex implements VideoIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened as is; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, videoMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func videoMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) keeps fuzzy edits
	// measured against the words as written.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, f := range []string{"titles", "tags", "description"} {
		docMapping.AddFieldMappingsAt(f, text)
	}
	numeric := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt(query.FieldViewCount, numeric)
	docMapping.AddFieldMappingsAt(query.FieldReleasedDate, numeric)

	im.AddDocumentMapping("video", docMapping)
	im.DefaultType = "video"
	im.DefaultMapping = docMapping
	return im
}

// Index adds or replaces a video.
func (b *BleveIndex) Index(ctx context.Context, v *models.Video) error {
	doc := map[string]interface{}{
		"titles":                strings.Join(v.Titles, "\n"),
		"tags":                  strings.Join(v.Tags, "\n"),
		"description":           v.Description,
		query.FieldViewCount:    float64(v.ViewCount),
		query.FieldReleasedDate: float64(v.ReleasedDate),
	}
	return b.index.Index(v.ID, doc)
}

// Search runs req as a weighted, fuzzy match over its query fields, constrained
// by its numeric filter and ordered by its sort field.
func (b *BleveIndex) Search(ctx context.Context, req *query.SearchRequest) ([]*Result, error) {
	sr := bleve.NewSearchRequestOptions(buildQuery(req), req.PerPage, 0, false)
	if req.SortField != "" {
		field := req.SortField
		if req.SortDesc {
			field = "-" + field
		}
		sr.SortBy([]string{field, "-_score"})
	}

	results, err := b.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func buildQuery(req *query.SearchRequest) blevequery.Query {
	fields := make([]blevequery.Query, 0, len(req.QueryBy))
	for i, f := range req.QueryBy {
		mq := bleve.NewMatchQuery(req.Query)
		mq.SetField(f)
		if req.NumTypos > 0 {
			mq.SetFuzziness(req.NumTypos)
		}
		if i < len(req.QueryByWeights) {
			mq.SetBoost(float64(req.QueryByWeights[i]))
		}
		fields = append(fields, mq)
	}
	var text blevequery.Query
	if len(fields) == 1 {
		text = fields[0]
	} else {
		text = bleve.NewDisjunctionQuery(fields...)
	}
	if len(req.Filter) == 0 {
		return text
	}

	conjuncts := []blevequery.Query{text}
	for _, c := range req.Filter {
		conjuncts = append(conjuncts, rangeQuery(c))
	}
	return bleve.NewConjunctionQuery(conjuncts...)
}

func rangeQuery(c query.Clause) blevequery.Query {
	v := float64(c.Value)
	yes, no := true, false
	var q *blevequery.NumericRangeQuery
	switch c.Op {
	case query.OpLt:
		q = bleve.NewNumericRangeInclusiveQuery(nil, &v, nil, &no)
	case query.OpLte:
		q = bleve.NewNumericRangeInclusiveQuery(nil, &v, nil, &yes)
	case query.OpGt:
		q = bleve.NewNumericRangeInclusiveQuery(&v, nil, &no, nil)
	case query.OpGte:
		q = bleve.NewNumericRangeInclusiveQuery(&v, nil, &yes, nil)
	default:
		q = bleve.NewNumericRangeInclusiveQuery(&v, &v, &yes, &yes)
	}
	q.SetField(c.Field)
	return q
}

// Delete removes a video from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of videos in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
