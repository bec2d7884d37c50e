// Package session keeps one chat session per conversation. Each conversation
// owns its own model chat handle, turns on one conversation run one at a time,
// and idle conversations expire.
package session

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/llm"
)

// ErrNotFound is returned by Delete for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Options configures a Registry. Zero TTL disables expiry and zero
// MaxSessions disables the size cap.
type Options struct {
	TTL         time.Duration
	MaxSessions int
}

type entry struct {
	id       string
	chat     llm.Session
	sem      chan struct{}
	lastUsed time.Time
	elem     *list.Element
}

// Registry maps conversation IDs to chat sessions.
type Registry struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front is most recently used
}

// NewRegistry creates a registry that opens sessions with provider.
func NewRegistry(provider llm.Provider, opts Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		provider: provider,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[string]*entry),
		lru:      list.New(),
	}
}

// Handle is exclusive access to one conversation's chat session until Release.
type Handle struct {
	ID      string
	Session llm.Session
	Created bool

	once    sync.Once
	release func()
}

// Release gives up the handle. It is safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(h.release)
}

// Acquire returns exclusive access to the session for id. An empty, unknown or
// expired id starts a new session under a fresh ID. Acquire blocks while another
// turn holds the same session, until ctx is done.
func (r *Registry) Acquire(ctx context.Context, id string) (*Handle, error) {
	e, created, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Handle{
		ID:      e.id,
		Session: e.chat,
		Created: created,
		release: func() {
			r.touch(e)
			<-e.sem
		},
	}, nil
}

func (r *Registry) lookup(ctx context.Context, id string) (*entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.expireLocked(now)

	if e, ok := r.entries[id]; ok && id != "" {
		e.lastUsed = now
		r.lru.MoveToFront(e.elem)
		return e, false, nil
	}

	chat, err := r.provider.NewSession(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s session: %w", r.provider.Name(), err)
	}
	e := &entry{
		id:       uuid.NewString(),
		chat:     chat,
		sem:      make(chan struct{}, 1),
		lastUsed: now,
	}
	e.elem = r.lru.PushFront(e)
	r.entries[e.id] = e

	if r.opts.MaxSessions > 0 {
		for r.lru.Len() > r.opts.MaxSessions {
			oldest := r.lru.Back().Value.(*entry)
			r.removeLocked(oldest)
			r.logger.Debug("Evicted session", zap.String("session_id", oldest.id))
		}
	}
	r.logger.Debug("Opened session", zap.String("session_id", e.id), zap.String("provider", r.provider.Name()))
	return e, true, nil
}

func (r *Registry) touch(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.lastUsed = r.now()
	if _, ok := r.entries[e.id]; ok {
		r.lru.MoveToFront(e.elem)
	}
}

// Delete ends the session for id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return ErrNotFound
	}
	r.removeLocked(e)
	return nil
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expireLocked(r.now())
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("Expired sessions", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) expireLocked(now time.Time) int {
	if r.opts.TTL <= 0 {
		return 0
	}
	n := 0
	for el := r.lru.Back(); el != nil; {
		e := el.Value.(*entry)
		if now.Sub(e.lastUsed) <= r.opts.TTL {
			break
		}
		prev := el.Prev()
		r.removeLocked(e)
		n++
		el = prev
	}
	return n
}

func (r *Registry) removeLocked(e *entry) {
	r.lru.Remove(e.elem)
	delete(r.entries, e.id)
}
