// Package typesense adapts the Typesense documents search API to search.Index.
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v3/typesense"
	"github.com/typesense/typesense-go/v3/typesense/api"
	"github.com/typesense/typesense-go/v3/typesense/api/pointer"
	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/query"
	"github.com/hyperjump/assist/internal/search"
)

const splitJoinAlways = "always"

// Client searches a Typesense server.
type Client struct {
	client  *typesense.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: typesense.NewClient(
			typesense.WithServer(strings.TrimRight(baseURL, "/")),
			typesense.WithAPIKey(apiKey),
			typesense.WithConnectionTimeout(timeout),
		),
		timeout: timeout,
		logger:  logger,
	}
}

// searchParams renders req as Typesense search parameters.
func searchParams(req *query.SearchRequest) *api.SearchCollectionParams {
	weights := make([]string, len(req.QueryByWeights))
	for i, w := range req.QueryByWeights {
		weights[i] = strconv.Itoa(w)
	}
	params := &api.SearchCollectionParams{
		Q:              pointer.String(req.Query),
		QueryBy:        pointer.String(strings.Join(req.QueryBy, ",")),
		QueryByWeights: pointer.String(strings.Join(weights, ",")),
		NumTypos:       pointer.String(strconv.Itoa(req.NumTypos)),
		PerPage:        pointer.Int(req.PerPage),
		IncludeFields:  pointer.String(strings.Join(req.IncludeFields, ",")),
	}
	if req.SplitJoinTokens {
		params.SplitJoinTokens = pointer.String(splitJoinAlways)
	}
	if f := req.Filter.String(); f != "" {
		params.FilterBy = pointer.String(f)
	}
	if s := req.SortBy(); s != "" {
		params.SortBy = pointer.String(s)
	}
	return params
}

// Search runs req against the request's collection.
// A 404 maps to search.ErrNotFound; any other failure is a *search.QueryError.
func (c *Client) Search(ctx context.Context, req *query.SearchRequest) ([]models.VideoHit, error) {
	result, err := c.client.Collection(req.Collection).Documents().Search(ctx, searchParams(req))
	if err != nil {
		var httpErr *typesense.HTTPError
		if !errors.As(err, &httpErr) {
			return nil, &search.QueryError{Message: err.Error(), Err: err}
		}
		if httpErr.Status == http.StatusNotFound {
			c.logger.Debug("Typesense collection not found", zap.String("collection", req.Collection))
			return nil, search.ErrNotFound
		}
		return nil, &search.QueryError{Status: httpErr.Status, Message: errorMessage(httpErr.Body), Err: err}
	}
	if result.Hits == nil {
		return []models.VideoHit{}, nil
	}
	hits := make([]models.VideoHit, 0, len(*result.Hits))
	for _, h := range *result.Hits {
		if h.Document == nil {
			continue
		}
		hit, err := decodeHit(*h.Document)
		if err != nil {
			return nil, &search.QueryError{Message: "decoding document", Err: err}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// decodeHit converts a generic Typesense document into a VideoHit.
func decodeHit(doc map[string]interface{}) (models.VideoHit, error) {
	var hit models.VideoHit
	data, err := json.Marshal(doc)
	if err != nil {
		return hit, err
	}
	err = json.Unmarshal(data, &hit)
	return hit, err
}

// errorMessage extracts the "message" field Typesense puts in error bodies.
func errorMessage(body []byte) string {
	var er struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(body))
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ok, err := c.client.Health(ctx, c.timeout)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("typesense reported unhealthy")
	}
	return nil
}
