// Package assistant runs one conversation turn: classify the request with the
// model, optionally turn it into a video search, and assemble the reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/llm"
	"github.com/hyperjump/assist/internal/metrics"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/parser"
	"github.com/hyperjump/assist/internal/prompts"
	"github.com/hyperjump/assist/internal/query"
	"github.com/hyperjump/assist/internal/reldate"
	"github.com/hyperjump/assist/internal/search"
	"github.com/hyperjump/assist/pkg/utils"
)

// Messages surfaced to clients.
const (
	NotFoundMessage = "Sorry, we couldn't find what you were looking for."
	FallbackMessage = "Sorry, I couldn't understand that. Could you rephrase your request?"
)

const (
	maxVideoResults  = 3
	stageIntent      = "intent"
	stageVideoSearch = "video_query"
)

var (
	// ErrEmptyPrompt rejects a turn without a prompt. No model call is made.
	ErrEmptyPrompt = errors.New("No prompt provided")
	// ErrGenerationFailed means the model returned no usable reply.
	ErrGenerationFailed = errors.New("There was an error in generating a response")
)

// Options configures an Assistant.
type Options struct {
	// Location is the time zone for calendar dates. Nil means time.Local.
	Location *time.Location
	// Now is the reference clock for prompts and relative dates. Nil means time.Now.
	Now func() time.Time
}

// Assistant orchestrates conversation turns. It holds no per-conversation
// state; the chat session is supplied with every turn.
type Assistant struct {
	index      search.Index
	prompts    *prompts.Builder
	translator *query.Translator
	now        func() time.Time
	logger     *zap.Logger
}

// New creates an Assistant that searches index.
func New(index search.Index, opts Options, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	localNow := func() time.Time { return now().In(loc) }
	return &Assistant{
		index:      index,
		prompts:    prompts.NewBuilder(localNow),
		translator: query.NewTranslator(loc),
		now:        localNow,
		logger:     logger,
	}
}

// Respond runs one turn against sess. It returns ErrEmptyPrompt for a blank
// prompt, an error wrapping ErrGenerationFailed when the model yields nothing,
// and an error wrapping *search.QueryError when the index fails.
func (a *Assistant) Respond(ctx context.Context, sess llm.Session, turn models.ConversationTurn) (*models.ChatResponse, error) {
	start := time.Now()
	defer func() { metrics.TurnDuration.Observe(time.Since(start).Seconds()) }()

	if strings.TrimSpace(turn.UserPrompt) == "" {
		metrics.TurnsTotal.WithLabelValues("", metrics.OutcomeRejected).Inc()
		return nil, ErrEmptyPrompt
	}

	a.logger.Debug("Awaiting intent", zap.Int("prompt_len", len(turn.UserPrompt)))
	reply, err := a.send(ctx, sess, stageIntent, a.prompts.IntentPrompt(turn.UserPrompt, turn.RunningSummary))
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("", metrics.OutcomeError).Inc()
		return nil, err
	}

	extraction := a.extractIntent(reply, turn)
	resp := &models.ChatResponse{
		Summary:      extraction.Summary,
		TextResponse: utils.FirstLine(extraction.Response),
		VideoResults: []models.VideoHit{},
	}

	if extraction.Intent != models.IntentFindVideo {
		a.logger.Debug("Direct answer", zap.String("intent", string(extraction.Intent)))
		metrics.TurnsTotal.WithLabelValues(string(extraction.Intent), metrics.OutcomeOK).Inc()
		return resp, nil
	}

	a.logger.Debug("Video search", zap.String("summary", extraction.Summary))
	hits, err := a.findVideos(ctx, sess, extraction.Summary, turn.UserPrompt)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(string(extraction.Intent), metrics.OutcomeError).Inc()
		return nil, err
	}
	if len(hits) == 0 {
		resp.TextResponse = NotFoundMessage
	} else {
		resp.VideoResults = hits
	}
	metrics.TurnsTotal.WithLabelValues(string(extraction.Intent), metrics.OutcomeOK).Inc()
	return resp, nil
}

func (a *Assistant) send(ctx context.Context, sess llm.Session, stage, prompt string) (string, error) {
	reply, err := sess.SendMessage(ctx, prompt)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(stage, metrics.OutcomeError).Inc()
		a.logger.Error("Model call failed", zap.String("stage", stage), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %v", ErrGenerationFailed, stage, err)
	}
	if reply == nil || strings.TrimSpace(reply.Text) == "" {
		metrics.LLMCallsTotal.WithLabelValues(stage, metrics.OutcomeEmpty).Inc()
		a.logger.Error("Model returned no reply", zap.String("stage", stage))
		return "", fmt.Errorf("%w: %s: empty reply", ErrGenerationFailed, stage)
	}
	metrics.LLMCallsTotal.WithLabelValues(stage, metrics.OutcomeOK).Inc()
	return reply.Text, nil
}

func (a *Assistant) parse(stage, text string, schema *parser.Schema) parser.Result {
	result := parser.Parse(text)
	metrics.ModelOutputTotal.WithLabelValues(stage, result.Kind.String()).Inc()
	switch result.Kind {
	case parser.Parsed:
		if problems := schema.Validate(result); len(problems) > 0 {
			a.logger.Warn("Model output does not match schema",
				zap.String("stage", stage), zap.Strings("problems", problems))
		}
	default:
		a.logger.Warn("Unusable model output",
			zap.String("stage", stage), zap.Stringer("kind", result.Kind), zap.Error(result.Err))
	}
	return result
}

// extractIntent reads the first reply. A reply without a usable block keeps
// the caller's summary: Malformed answers with the raw text, DecodeError with
// a fixed fallback.
func (a *Assistant) extractIntent(text string, turn models.ConversationTurn) models.IntentExtraction {
	result := a.parse(stageIntent, text, parser.IntentSchema)
	switch result.Kind {
	case parser.Parsed:
		return models.IntentExtraction{
			Intent:   models.ParseIntent(result.StringOrEmpty("intent")),
			Summary:  result.StringOrEmpty("summary"),
			Response: result.StringOrEmpty("response"),
		}
	case parser.Malformed:
		return models.IntentExtraction{
			Intent:   models.IntentOther,
			Summary:  turn.RunningSummary,
			Response: strings.TrimSpace(result.Raw),
		}
	default:
		return models.IntentExtraction{
			Intent:   models.IntentOther,
			Summary:  turn.RunningSummary,
			Response: FallbackMessage,
		}
	}
}

// findVideos runs the second model call and the index search. Anything that
// prevents a well-formed query yields no hits rather than an error.
func (a *Assistant) findVideos(ctx context.Context, sess llm.Session, summary, userPrompt string) ([]models.VideoHit, error) {
	text, err := a.send(ctx, sess, stageVideoSearch, a.prompts.VideoQueryPrompt(summary, userPrompt))
	if err != nil {
		return nil, err
	}

	fields := a.videoFields(a.parse(stageVideoSearch, text, parser.VideoQuerySchema))
	req, err := a.translator.Translate(fields)
	if err != nil {
		var dateErr *query.DateFormatError
		var viewErr *query.ViewCountFormatError
		switch {
		case errors.Is(err, query.ErrEmptyTopic):
			a.logger.Debug("No topic extracted, skipping search")
		case errors.As(err, &dateErr), errors.As(err, &viewErr):
			a.logger.Warn("Discarding video query", zap.Error(err))
		default:
			a.logger.Warn("Failed to translate video query", zap.Error(err))
		}
		metrics.IndexSearchesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, nil
	}

	hits, err := a.index.Search(ctx, req)
	if errors.Is(err, search.ErrNotFound) {
		a.logger.Warn("Search index not found", zap.String("collection", req.Collection))
		metrics.IndexSearchesTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, nil
	}
	if err != nil {
		metrics.IndexSearchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		a.logger.Error("Index search failed", zap.Error(err))
		var qe *search.QueryError
		if !errors.As(err, &qe) {
			err = &search.QueryError{Message: err.Error(), Err: err}
		}
		return nil, fmt.Errorf("video search: %w", err)
	}
	metrics.IndexSearchesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	if len(hits) > maxVideoResults {
		hits = hits[:maxVideoResults]
	}
	a.logger.Debug("Responded", zap.Int("hits", len(hits)), zap.String("filter", req.Filter.String()))
	return hits, nil
}

func (a *Assistant) videoFields(result parser.Result) models.VideoQueryFields {
	fields := models.VideoQueryFields{
		Topic:             result.StringOrEmpty("topic"),
		ViewCount:         result.StringOrEmpty("view_count"),
		ReleaseDateBefore: result.StringOrEmpty("release_date_before"),
		ReleaseDateAfter:  result.StringOrEmpty("release_date_after"),
		ReleasePeriod:     result.StringOrEmpty("release_period"),
	}
	if fields.ReleasePeriod == "" {
		return fields
	}
	if r, ok := reldate.Resolve(fields.ReleasePeriod, a.now()); ok {
		a.logger.Debug("Resolved release period",
			zap.String("period", fields.ReleasePeriod),
			zap.String("after", r.AfterDate()),
			zap.String("until", r.UntilDate()))
		fields.ReleaseDateAfter = r.AfterDate()
		fields.ReleaseDateBefore = r.UntilDate()
	}
	return fields
}
