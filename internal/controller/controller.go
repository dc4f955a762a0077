// Package controller sequences requests against the shopping API and commits
// their results into the view state.
//
// # Request lifecycle
//
//	Idle ──Begin*──> Pending ──Run──> Finish ──> Committed | Failed
//
// Begin* validates input, refuses to dispatch while another request is in
// flight (ErrBusy) and sets the busy flag. Run performs only network I/O and
// may be called on any goroutine. Finish commits a successful result into
// its mode's slot (or leaves every slot untouched on failure), clears the
// busy flag and emits an event. Finish must be called exactly once per
// request, on the goroutine that owns the store.
//
// Search, Chat, Recommend, Browse and RecommendByID run the three phases in
// sequence for callers that do not need to interleave them with a UI loop.
package controller

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"shopassist/internal/domain"
	"shopassist/internal/logging"
	"shopassist/internal/state"
)

// Config holds per-request parameters sent with every call.
type Config struct {
	SearchLimit      int
	ChatContextLimit int
	IncludeProducts  bool
	RecommendLimit   int
}

// DefaultConfig mirrors the web client's page sizes.
func DefaultConfig() Config {
	return Config{
		SearchLimit:      12,
		ChatContextLimit: 3,
		IncludeProducts:  true,
		RecommendLimit:   6,
	}
}

// Controller is the sole writer of the view state.
type Controller struct {
	api    domain.ShopAPI
	store  *state.Store
	cfg    Config
	events chan Event
	log    *log.Logger

	mu       sync.Mutex
	inflight *Request
	nextID   uint64
}

// New creates a controller committing into store.
func New(api domain.ShopAPI, store *state.Store, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.ChatContextLimit <= 0 {
		cfg.ChatContextLimit = def.ChatContextLimit
	}
	if cfg.RecommendLimit <= 0 {
		cfg.RecommendLimit = def.RecommendLimit
	}
	return &Controller{
		api:    api,
		store:  store,
		cfg:    cfg,
		events: make(chan Event, 16),
		log:    logging.WithPrefix("controller"),
	}
}

// Subscribe returns the controller's event channel. Events are dropped,
// oldest first, when the subscriber falls behind.
func (c *Controller) Subscribe() <-chan Event {
	return c.events
}

// Store returns the store the controller commits into.
func (c *Controller) Store() *state.Store {
	return c.store
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// SetMode switches the active view. It is allowed while a request is in flight.
func (c *Controller) SetMode(mode domain.Mode) error {
	return c.store.SetMode(mode)
}

// Abort cancels the in-flight request, if any. The request still finishes
// through Finish as a failure. Reports whether there was anything to cancel.
func (c *Controller) Abort() bool {
	c.mu.Lock()
	req := c.inflight
	c.mu.Unlock()
	if req == nil {
		return false
	}
	req.cancel()
	c.debug("request aborted", "id", req.ID, "kind", req.Kind)
	return true
}

// Health checks the remote API. It does not touch the busy flag.
func (c *Controller) Health(ctx context.Context) (domain.HealthStatus, error) {
	return c.api.Health(ctx)
}

// BeginSearch starts a search for query. Blank queries are rejected without
// contacting the API.
func (c *Controller) BeginSearch(ctx context.Context, query string, filters SearchFilters) (*Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &ValidationError{Field: "query", Err: ErrEmptyInput}
	}
	req := domain.SearchRequest{
		Query:    q,
		Limit:    c.cfg.SearchLimit,
		Category: filters.Category,
		MinPrice: filters.MinPrice,
		MaxPrice: filters.MaxPrice,
	}
	return c.begin(ctx, KindSearch, func(ctx context.Context) (any, error) {
		return c.api.Search(ctx, req)
	}, func(payload any) {
		resp := payload.(domain.SearchResponse)
		c.store.CommitSearch(resp.Results, state.SearchMeta{
			Query:           q,
			Total:           resp.Total,
			SemanticMatches: resp.SemanticMatches,
		})
	})
}

// BeginBrowse lists the whole catalogue into the search slot.
func (c *Controller) BeginBrowse(ctx context.Context) (*Request, error) {
	return c.begin(ctx, KindBrowse, func(ctx context.Context) (any, error) {
		return c.api.ListProducts(ctx)
	}, func(payload any) {
		products := payload.([]domain.Product)
		c.store.CommitSearch(products, state.SearchMeta{Total: len(products)})
	})
}

// BeginChat sends question to the assistant. The committed turn records the
// question exactly as typed.
func (c *Controller) BeginChat(ctx context.Context, question string) (*Request, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &ValidationError{Field: "question", Err: ErrEmptyInput}
	}
	req := domain.ChatRequest{
		Question:        question,
		ContextLimit:    c.cfg.ChatContextLimit,
		IncludeProducts: c.cfg.IncludeProducts,
	}
	return c.begin(ctx, KindChat, func(ctx context.Context) (any, error) {
		return c.api.Chat(ctx, req)
	}, func(payload any) {
		turn := payload.(domain.ChatTurn)
		turn.Question = question
		c.store.CommitChatTurn(turn)
	})
}

// BeginRecommend fetches recommendations seeded by product. A limit <= 0
// uses the configured default. On success the view switches to recommend.
func (c *Controller) BeginRecommend(ctx context.Context, seed domain.Product, limit int) (*Request, error) {
	if strings.TrimSpace(seed.ID) == "" {
		return nil, &ValidationError{Field: "product id", Err: ErrEmptyInput}
	}
	if limit <= 0 {
		limit = c.cfg.RecommendLimit
	}
	id := seed.ID
	req := domain.RecommendRequest{ProductID: &id, Limit: limit}
	return c.begin(ctx, KindRecommend, func(ctx context.Context) (any, error) {
		set, err := c.api.Recommend(ctx, req)
		if err != nil {
			return nil, err
		}
		return recommendation{seed: seed, set: truncate(set, limit)}, nil
	}, c.commitRecommendation)
}

// BeginRecommendByID looks the seed product up by id and then fetches its
// recommendations. Both calls happen inside one pending span.
func (c *Controller) BeginRecommendByID(ctx context.Context, productID string, limit int) (*Request, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, &ValidationError{Field: "product id", Err: ErrEmptyInput}
	}
	if limit <= 0 {
		limit = c.cfg.RecommendLimit
	}
	return c.begin(ctx, KindRecommend, func(ctx context.Context) (any, error) {
		seed, err := c.api.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		set, err := c.api.Recommend(ctx, domain.RecommendRequest{ProductID: &seed.ID, Limit: limit})
		if err != nil {
			return nil, err
		}
		return recommendation{seed: seed, set: truncate(set, limit)}, nil
	}, c.commitRecommendation)
}

type recommendation struct {
	seed domain.Product
	set  domain.RecommendationSet
}

func (c *Controller) commitRecommendation(payload any) {
	rec := payload.(recommendation)
	// order: selected product, recommendation set, mode
	c.store.SetSelectedProduct(rec.seed)
	c.store.CommitRecommendations(rec.set, rec.seed)
	// the only mode switch caused by a successful request
	_ = c.store.SetMode(domain.ModeRecommend)
}

// truncate caps the set at limit, keeping scores aligned.
func truncate(set domain.RecommendationSet, limit int) domain.RecommendationSet {
	if len(set.Recommendations) <= limit {
		return set
	}
	set.Recommendations = set.Recommendations[:limit]
	if set.SimilarityScores != nil {
		set.SimilarityScores = set.SimilarityScores[:limit]
	}
	return set
}

// Search runs a search to completion.
func (c *Controller) Search(ctx context.Context, query string, filters SearchFilters) error {
	return c.runSync(c.BeginSearch(ctx, query, filters))
}

// Browse lists the catalogue to completion.
func (c *Controller) Browse(ctx context.Context) error {
	return c.runSync(c.BeginBrowse(ctx))
}

// Chat sends a question and waits for the answer to be committed.
func (c *Controller) Chat(ctx context.Context, question string) error {
	return c.runSync(c.BeginChat(ctx, question))
}

// Recommend fetches recommendations for seed to completion.
func (c *Controller) Recommend(ctx context.Context, seed domain.Product, limit int) error {
	return c.runSync(c.BeginRecommend(ctx, seed, limit))
}

// RecommendByID fetches a product by id and its recommendations to completion.
func (c *Controller) RecommendByID(ctx context.Context, productID string, limit int) error {
	return c.runSync(c.BeginRecommendByID(ctx, productID, limit))
}

func (c *Controller) runSync(req *Request, err error) error {
	if err != nil {
		return err
	}
	return c.Finish(req.Run())
}

func (c *Controller) begin(ctx context.Context, kind Kind, call func(context.Context) (any, error), commit func(any)) (*Request, error) {
	c.mu.Lock()
	if c.inflight != nil {
		c.mu.Unlock()
		c.debug("dispatch ignored, busy", "kind", kind)
		return nil, ErrBusy
	}
	c.nextID++
	rctx, cancel := context.WithCancel(ctx)
	req := &Request{
		ID:     c.nextID,
		Kind:   kind,
		ctx:    rctx,
		cancel: cancel,
		call:   call,
		commit: commit,
	}
	c.inflight = req
	c.mu.Unlock()

	c.store.SetBusy(true)
	c.debug("request started", "id", req.ID, "kind", kind)
	c.emit(Event{Type: EventStarted, Kind: kind, RequestID: req.ID})
	return req, nil
}

// Finish commits res, releases the in-flight slot and then clears the busy
// flag. It returns the request's error, or nil when the result was committed.
func (c *Controller) Finish(res Result) error {
	req := res.req
	c.mu.Lock()
	current := c.inflight == req
	c.mu.Unlock()
	if req == nil || !current {
		c.warn("finish for a request that is not in flight", "kind", res.Kind)
		return res.Err
	}
	defer req.cancel()

	if res.Err == nil {
		req.commit(res.payload)
	}

	// cleared before busy so a listener reacting to busy=false can dispatch
	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	c.store.SetBusy(false)

	if res.Err != nil {
		c.warn("request failed", "id", req.ID, "kind", req.Kind, "err", res.Err)
		c.emit(Event{Type: EventFailed, Kind: req.Kind, RequestID: req.ID, Err: res.Err})
		return res.Err
	}
	c.debug("request committed", "id", req.ID, "kind", req.Kind)
	c.emit(Event{Type: EventCompleted, Kind: req.Kind, RequestID: req.ID})
	return nil
}

func (c *Controller) debug(msg string, keyvals ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, keyvals...)
	}
}

func (c *Controller) warn(msg string, keyvals ...interface{}) {
	if c.log != nil {
		c.log.Warn(msg, keyvals...)
	}
}
