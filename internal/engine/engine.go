package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/breate/internal/debounce"
	"github.com/five82/breate/internal/fetch"
	"github.com/five82/breate/internal/filter"
	"github.com/five82/breate/internal/state"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("engine closed")
	// ErrSuperseded is returned by Load when a newer settle won the race.
	ErrSuperseded = errors.New("response superseded by a newer request")
	// ErrNoIdentity is returned when editing a row the server sent without
	// an id.
	ErrNoIdentity = errors.New("item has no id")
)

// Kind describes a mutation the screen supports. Persist is optional; kinds
// without it only live in memory for the session.
type Kind struct {
	Field   string
	Persist func(ctx context.Context, itemID string, value any) error
}

// Config describes one list screen.
type Config struct {
	Name         string
	Shape        filter.Shape
	Policy       fetch.Policy
	Debounce     time.Duration
	InitialDelay time.Duration
	Defaults     filter.Criteria
	Kinds        map[string]Kind
	MutationTTL  time.Duration
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the parent logger. The engine logs under engine.<name>.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces the clock used to stamp and expire mutations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.store.Now = now
	}
}

// View is what a screen renders: the merged snapshot narrowed by the local
// matchers, plus the criteria it reflects.
type View struct {
	state.Snapshot
	Criteria filter.Criteria
	// Total counts items before local matchers ran.
	Total int
	// Idle is true when the criteria short-circuited to the empty state.
	Idle bool
}

// Engine keeps one filtered list in sync with the server. Criteria edits are
// debounced into settles; each settle issues a token and only the response
// carrying the current token is applied.
type Engine struct {
	name      string
	shape     filter.Shape
	kinds     map[string]Kind
	delay     time.Duration
	client    *fetch.Client
	debouncer *debounce.Debouncer
	resolver  Resolver
	store     *state.Store
	logger    *zap.Logger
	changes   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	criteria  filter.Criteria
	issued    filter.Descriptor
	hasIssued bool
	failed    bool
	idle      bool
	closed    bool
}

// New builds an Engine over transport. Nothing is fetched until Start,
// Refresh or Load is called.
func New(transport fetch.Transport, cfg Config, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		name:      cfg.Name,
		shape:     cfg.Shape,
		kinds:     cfg.Kinds,
		delay:     cfg.InitialDelay,
		debouncer: debounce.New(cfg.Debounce),
		store:     &state.Store{TTL: cfg.MutationTTL},
		logger:    zap.NewNop(),
		changes:   make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		criteria:  cfg.Defaults,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine").Named(cfg.Name)
	e.client = fetch.NewClient(transport, cfg.Policy, e.logger)
	return e
}

// Name returns the screen name.
func (e *Engine) Name() string { return e.name }

// Criteria returns the current criteria.
func (e *Engine) Criteria() filter.Criteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria
}

// Start issues the initial load, after the configured initial delay if any.
func (e *Engine) Start() {
	if e.delay <= 0 {
		e.Refresh()
		return
	}
	e.debouncer.Schedule(e.delay, func() { e.settle(true) })
}

// SetFilter changes one criteria field and schedules a debounced settle. It
// returns the new criteria. Edits that leave every constraint unchanged, such
// as added surrounding spaces, schedule nothing.
func (e *Engine) SetFilter(field, value string) filter.Criteria {
	e.mu.Lock()
	if e.closed {
		c := e.criteria
		e.mu.Unlock()
		return c
	}
	prev := e.criteria
	e.criteria = e.criteria.Set(field, value)
	c := e.criteria
	e.mu.Unlock()

	if c.Equal(prev) {
		return c
	}

	e.debouncer.Trigger(func() {
		e.logger.Debug("debounce fired", zap.String("criteria", fmt.Sprint(c.Map())))
		e.settle(false)
	})
	e.notify()
	return c
}

// Refresh settles immediately with the current criteria, dropping any
// pending debounced settle.
func (e *Engine) Refresh() {
	e.debouncer.Cancel()
	e.settle(true)
}

// Load settles synchronously and returns the view once the response for this
// settle has been applied. Close cancels a Load still waiting on the network.
func (e *Engine) Load(ctx context.Context) (View, error) {
	e.debouncer.Cancel()
	d, act := e.prepare(true)
	switch act {
	case actClosed:
		return View{}, ErrClosed
	case actFetch:
		defer e.wg.Done()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(e.ctx, cancel)
		defer stop()

		res := e.client.Execute(ctx, d)
		if !e.OnResponse(res) {
			if e.ctx.Err() != nil {
				return View{}, ErrClosed
			}
			return e.Snapshot(), ErrSuperseded
		}
		if res.Err != nil {
			return e.Snapshot(), res.Err
		}
	}
	return e.Snapshot(), nil
}

type action int

const (
	actNone action = iota
	actClear
	actFetch
	actClosed
)

func (e *Engine) settle(force bool) {
	d, act := e.prepare(force)
	switch act {
	case actClear, actNone:
		e.notify()
	case actFetch:
		e.notify()
		go func() {
			defer e.wg.Done()
			e.OnResponse(e.client.Execute(e.ctx, d))
		}()
	}
}

// prepare decides what a settle does. For actFetch the descriptor carries a
// fresh token and a WaitGroup slot has been reserved.
func (e *Engine) prepare(force bool) (filter.Descriptor, action) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return filter.Descriptor{}, actClosed
	}
	d, ok := e.shape.Build(e.criteria)
	if !ok {
		e.resolver.Invalidate()
		e.hasIssued = false
		e.failed = false
		e.idle = true
		e.store.Clear()
		return filter.Descriptor{}, actClear
	}
	e.idle = false
	if !force && e.hasIssued && !e.failed && d.Equal(e.issued) {
		// Only locally matched fields changed; the request in flight or the
		// applied result already answers this descriptor.
		return e.issued, actNone
	}
	d = d.WithToken(e.resolver.Issue())
	e.issued = d
	e.hasIssued = true
	e.store.SetLoading(true)
	e.wg.Add(1)
	e.logger.Debug("request issued", zap.Stringer("descriptor", d))
	return d, actFetch
}

// OnResponse applies res if its token is still current and reports whether
// it was applied. Stale responses are dropped silently.
func (e *Engine) OnResponse(res fetch.Result) bool {
	e.mu.Lock()
	if !e.resolver.Accept(res.Token) {
		e.mu.Unlock()
		e.logger.Debug("discarding stale response",
			zap.Uint64("token", uint64(res.Token)),
			zap.String("endpoint", res.Descriptor.Key()))
		return false
	}

	if res.Err != nil {
		e.failed = true
		e.store.Fail(res.Err)
		e.mu.Unlock()
		e.logger.Error("fetch failed",
			zap.String("endpoint", res.Descriptor.Key()),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.Err))
		e.notify()
		return true
	}

	items, err := state.DecodeItems(res.Payload, e.shape.ResultKey, e.shape.ItemID())
	if err != nil {
		e.failed = true
		e.store.Fail(fmt.Errorf("decode %s: %w", res.Descriptor.Key(), err))
		e.mu.Unlock()
		e.logger.Error("decode failed", zap.String("endpoint", res.Descriptor.Key()), zap.Error(err))
		e.notify()
		return true
	}
	e.failed = false
	confirmed := e.store.ReplaceAll(items)
	e.mu.Unlock()

	if confirmed > 0 {
		e.logger.Debug("mutations confirmed by server", zap.Int("count", confirmed))
	}
	e.notify()
	return true
}

// ApplyMutation records an optimistic edit of kind on itemID. When the kind
// persists, the call runs in the background and the edit is folded in or
// rolled back on completion.
func (e *Engine) ApplyMutation(itemID, kind string, value any) (state.Mutation, error) {
	k, ok := e.kinds[kind]
	if !ok {
		return state.Mutation{}, fmt.Errorf("engine %s: unknown mutation kind %q", e.name, kind)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return state.Mutation{}, ErrClosed
	}
	if e.store.Positional(itemID) {
		e.mu.Unlock()
		return state.Mutation{}, fmt.Errorf("engine %s: edit %s: %w", e.name, itemID, ErrNoIdentity)
	}
	m := e.store.ApplyMutation(itemID, kind, k.Field, value)
	if k.Persist != nil {
		e.wg.Add(1)
	}
	e.mu.Unlock()
	e.notify()

	if k.Persist != nil {
		go e.persist(k, m)
	}
	return m, nil
}

// Toggle flips the boolean shown for kind's field on itemID.
func (e *Engine) Toggle(itemID, kind string) (state.Mutation, error) {
	k, ok := e.kinds[kind]
	if !ok {
		return state.Mutation{}, fmt.Errorf("engine %s: unknown mutation kind %q", e.name, kind)
	}
	current, _ := e.store.Display(itemID, k.Field)
	return e.ApplyMutation(itemID, kind, !truthy(current))
}

func (e *Engine) persist(k Kind, m state.Mutation) {
	defer e.wg.Done()

	if err := k.Persist(e.ctx, m.ItemID, m.Value); err != nil {
		e.store.Reject(m.ID)
		e.logger.Error("mutation rejected",
			zap.String("item", m.ItemID),
			zap.String("kind", m.Kind),
			zap.Error(err))
	} else {
		e.store.Acknowledge(m.ID)
	}
	e.notify()
}

// Snapshot returns the current view.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	c := e.criteria
	idle := e.idle
	e.mu.Unlock()

	snap := e.store.Snapshot()
	view := View{Snapshot: snap, Criteria: c, Total: len(snap.Items), Idle: idle}
	if len(e.shape.Local) == 0 {
		return view
	}
	kept := snap.Items[:0]
	for _, it := range snap.Items {
		if e.shape.Matches(it.Fields, c) {
			kept = append(kept, it)
		}
	}
	view.Items = kept
	return view
}

// Changes delivers a coalesced signal whenever the view may have changed.
func (e *Engine) Changes() <-chan struct{} {
	return e.changes
}

// Close stops pending settles, discards responses still in flight and waits
// for background work to finish. It is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.debouncer.Stop()
	e.resolver.Invalidate()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) notify() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	default:
		return false
	}
}
