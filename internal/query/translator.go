package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/assist/internal/models"
)

const (
	// Collection is the index collection holding video documents.
	Collection = "videolists"

	FieldViewCount    = "view_count"
	FieldReleasedDate = "released_date"

	dateLayout = "2006-01-02"
	pageSize   = 3
	numTypos   = 2
)

var (
	queryBy        = []string{"titles", "tags", "description"}
	queryByWeights = []int{3, 2, 1}
	includeFields  = []string{"id", "titles", "thumbnail_height", "thumbnail_width", "thumbnail_url", "view_count", "released_date"}

	viewCountPattern = regexp.MustCompile(`^(<|>)?(\d+)$`)
	viewCountNoise   = strings.NewReplacer(" ", "", ",", "", "_", "")
)

// ErrEmptyTopic is returned when there is no free-text term to search for.
var ErrEmptyTopic = errors.New("video query has no topic")

// DateFormatError reports a release date that is not a YYYY-MM-DD calendar date.
type DateFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: expected YYYY-MM-DD", e.Field, e.Value)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}

// ViewCountFormatError reports a view count comparator outside the grammar (<|>)?digits.
type ViewCountFormatError struct {
	Value string
}

func (e *ViewCountFormatError) Error() string {
	return fmt.Sprintf("invalid view_count %q: expected <N, >N or N", e.Value)
}

// SearchRequest is a complete query against the video collection.
type SearchRequest struct {
	Collection      string
	Query           string
	QueryBy         []string
	QueryByWeights  []int
	SplitJoinTokens bool
	Filter          Filter
	SortField       string
	SortDesc        bool
	NumTypos        int
	PerPage         int
	IncludeFields   []string
}

// SortBy renders the sort in "field:desc" form.
func (r *SearchRequest) SortBy() string {
	if r.SortField == "" {
		return ""
	}
	if r.SortDesc {
		return r.SortField + ":desc"
	}
	return r.SortField + ":asc"
}

// Translator converts extracted video fields into search requests.
type Translator struct {
	loc *time.Location
}

// NewTranslator returns a translator that reads calendar dates in loc.
// A nil loc means time.Local.
func NewTranslator(loc *time.Location) *Translator {
	if loc == nil {
		loc = time.Local
	}
	return &Translator{loc: loc}
}

// Translate builds the search request for fields. It returns ErrEmptyTopic when
// the topic is blank, *DateFormatError for unparseable dates and
// *ViewCountFormatError for a view count outside the comparator grammar.
// Absent fields contribute no clause.
func (t *Translator) Translate(fields models.VideoQueryFields) (*SearchRequest, error) {
	topic := strings.TrimSpace(fields.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	filter, err := t.BuildFilter(fields)
	if err != nil {
		return nil, err
	}
	return &SearchRequest{
		Collection:      Collection,
		Query:           topic,
		QueryBy:         append([]string(nil), queryBy...),
		QueryByWeights:  append([]int(nil), queryByWeights...),
		SplitJoinTokens: true,
		Filter:          filter,
		SortField:       FieldViewCount,
		SortDesc:        true,
		NumTypos:        numTypos,
		PerPage:         pageSize,
		IncludeFields:   append([]string(nil), includeFields...),
	}, nil
}

// BuildFilter returns the conjunction of view count and release date clauses.
func (t *Translator) BuildFilter(fields models.VideoQueryFields) (Filter, error) {
	var filter Filter
	if vc := strings.TrimSpace(fields.ViewCount); vc != "" {
		c, err := parseViewCount(vc)
		if err != nil {
			return nil, err
		}
		filter = append(filter, c)
	}
	if before := strings.TrimSpace(fields.ReleaseDateBefore); before != "" {
		epoch, err := t.Epoch(before)
		if err != nil {
			return nil, &DateFormatError{Field: "release_date_before", Value: before, Err: err}
		}
		filter = append(filter, Clause{Field: FieldReleasedDate, Op: OpLte, Value: epoch})
	}
	if after := strings.TrimSpace(fields.ReleaseDateAfter); after != "" {
		epoch, err := t.Epoch(after)
		if err != nil {
			return nil, &DateFormatError{Field: "release_date_after", Value: after, Err: err}
		}
		filter = append(filter, Clause{Field: FieldReleasedDate, Op: OpGte, Value: epoch})
	}
	return filter, nil
}

// Epoch returns the Unix seconds of midnight on date in the translator's location.
func (t *Translator) Epoch(date string) (int64, error) {
	d, err := time.ParseInLocation(dateLayout, date, t.loc)
	if err != nil {
		return 0, err
	}
	return d.Unix(), nil
}

func parseViewCount(raw string) (Clause, error) {
	m := viewCountPattern.FindStringSubmatch(viewCountNoise.Replace(raw))
	if m == nil {
		return Clause{}, &ViewCountFormatError{Value: raw}
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Clause{}, &ViewCountFormatError{Value: raw}
	}
	return Clause{Field: FieldViewCount, Op: Op(m[1]), Value: n}, nil
}
