// Package engine implements the retrieval coordinator: it owns the document
// store and HNSW graph, routes searches between brute-force and ANN, and
// dispatches the power hook pipeline around every operation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/embedding"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/power"
	"github.com/hyperjump/shirabe/internal/store"
	"github.com/hyperjump/shirabe/internal/vector"
)

// DefaultTopK is the result count used when a search passes k <= 0.
const DefaultTopK = 10

// Routing mode names reported by Routing.
const (
	RoutingBruteForce = "brute-force"
	RoutingHNSW       = "hnsw"
)

// Options holds engine construction parameters. Zero numeric values use the
// documented defaults; UseANN is taken as given, so its zero value disables
// the HNSW graph (DefaultOptions sets it to true).
type Options struct {
	UseANN         bool
	ANNThreshold   int
	M              int
	EfConstruction int
	EfSearch       int
	Dimensions     int
	LevelSeed      int64
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		UseANN:         true,
		ANNThreshold:   config.DefaultANNThreshold,
		M:              vector.DefaultM,
		EfConstruction: vector.DefaultEfConstruction,
		EfSearch:       vector.DefaultEfSearch,
		Dimensions:     embedding.DefaultDimensions,
	}
}

// OptionsFromConfig builds engine options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UseANN:         cfg.Engine.UseANNOrDefault(),
		ANNThreshold:   cfg.Engine.ANNThreshold,
		M:              cfg.Engine.M,
		EfConstruction: cfg.Engine.EfConstruction,
		EfSearch:       cfg.Engine.EfSearch,
		Dimensions:     cfg.Embedding.Dimensions,
		LevelSeed:      cfg.Engine.LevelSeed,
	}
}

// Engine is the in-memory semantic search engine. All public operations are
// atomic with respect to one another: a single reader/writer lock protects
// the store, the graph, and power state, which matches the observable
// single-threaded contract.
type Engine struct {
	opts     Options
	store    *store.MemoryStore
	hnsw     *vector.HNSW
	registry *power.Registry
	embedder embedding.Embedder
	logger   *zap.Logger
	mu       sync.RWMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger (a no-op logger is used by default).
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEmbedder replaces the built-in hash embedder as the default embedder.
// Powers with an Embed hook still take precedence.
func WithEmbedder(emb embedding.Embedder) Option {
	return func(e *Engine) { e.embedder = emb }
}

// New creates an engine. Multiple independent engines may coexist in one
// process.
func New(opts Options, options ...Option) (*Engine, error) {
	if opts.ANNThreshold <= 0 {
		opts.ANNThreshold = config.DefaultANNThreshold
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = embedding.DefaultDimensions
	}
	if opts.EfSearch <= 0 {
		opts.EfSearch = vector.DefaultEfSearch
	}
	e := &Engine{
		opts:     opts,
		store:    store.NewMemoryStore(),
		registry: power.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.embedder == nil {
		e.embedder = embedding.NewHashEmbedder(opts.Dimensions)
	}
	if e.embedder.Dimensions() != opts.Dimensions {
		return nil, fmt.Errorf("embedder dimensions %d do not match engine dimensions %d",
			e.embedder.Dimensions(), opts.Dimensions)
	}
	if opts.UseANN {
		h, err := vector.NewHNSW(vector.HNSWConfig{
			Dimensions:     opts.Dimensions,
			M:              opts.M,
			EfConstruction: opts.EfConstruction,
			LevelSeed:      opts.LevelSeed,
		})
		if err != nil {
			return nil, err
		}
		e.hnsw = h
	}
	return e, nil
}

// resolveEmbedder returns the active embedding function: the Embed hook of
// the most recently registered power that has one, or the default embedder.
func (e *Engine) resolveEmbedder() power.EmbedFunc {
	if fn := e.registry.ResolveEmbedder(); fn != nil {
		return fn
	}
	return e.embedder.EmbedBatch
}

// Add embeds and indexes documents in input order. BeforeAdd hooks may
// transform the list; the final list is embedded in one call, written to the
// store, and inserted into the HNSW graph before AfterAdd hooks run.
//
// A document whose ID already exists overwrites the store entry but is
// skipped by the HNSW insert, so the graph keeps the old vector; delete the
// ID first for full replacement. The skip also makes re-imports idempotent.
func (e *Engine) Add(ctx context.Context, docs []models.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(ctx, docs)
}

func (e *Engine) addLocked(ctx context.Context, docs []models.Document) error {
	var err error
	for _, p := range e.registry.All() {
		if p.BeforeAdd == nil {
			continue
		}
		if docs, err = p.BeforeAdd(ctx, docs); err != nil {
			return fmt.Errorf("power %q beforeAdd: %w", p.Name, err)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vecs, err := e.resolveEmbedder()(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}

	for i, doc := range docs {
		if len(vecs[i]) != e.opts.Dimensions {
			return fmt.Errorf("embedding dimension %d for %q, expected %d", len(vecs[i]), doc.ID, e.opts.Dimensions)
		}
		e.store.Put(doc.ID, &store.StoredDocument{
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: vecs[i],
		})
		if e.hnsw != nil {
			if insertErr := e.hnsw.Insert(doc.ID, vecs[i]); insertErr != nil &&
				!errors.Is(insertErr, vector.ErrDuplicateID) {
				return insertErr
			}
		}
	}
	e.logger.Debug("documents added", zap.Int("count", len(docs)), zap.Int("size", e.store.Len()))

	for _, p := range e.registry.All() {
		if p.AfterAdd == nil {
			continue
		}
		if err := p.AfterAdd(ctx, docs); err != nil {
			return fmt.Errorf("power %q afterAdd: %w", p.Name, err)
		}
	}
	return nil
}

// Search returns the top k documents for the query, sorted by score
// descending. BeforeSearch hooks run first and may short-circuit; AfterSearch
// hooks transform the result list. k <= 0 uses DefaultTopK. An empty store
// yields an empty list.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sc := &power.SearchContext{Query: query, TopK: k}
	for _, p := range e.registry.All() {
		if p.BeforeSearch == nil {
			continue
		}
		if err := p.BeforeSearch(ctx, sc); err != nil {
			return nil, fmt.Errorf("power %q beforeSearch: %w", p.Name, err)
		}
		if results, ok := sc.ShortCircuited(); ok {
			e.logger.Debug("search short-circuited", zap.String("power", p.Name), zap.String("query", sc.Query))
			return results, nil
		}
	}

	vecs, err := e.resolveEmbedder()(ctx, []string{sc.Query})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != e.opts.Dimensions {
		return nil, fmt.Errorf("embedder returned an invalid query vector")
	}
	qv := vecs[0]

	var results []models.SearchResult
	if e.routingLocked() == RoutingHNSW {
		hits, searchErr := e.hnsw.Search(qv, k, e.opts.EfSearch)
		if searchErr != nil {
			return nil, searchErr
		}
		results = e.hydrate(hits)
	} else {
		results = e.bruteForce(qv, k)
	}

	for _, p := range e.registry.All() {
		if p.AfterSearch == nil {
			continue
		}
		if results, err = p.AfterSearch(ctx, sc, results); err != nil {
			return nil, fmt.Errorf("power %q afterSearch: %w", p.Name, err)
		}
	}
	return results, nil
}

// bruteForce scores every stored vector against q and returns the top k,
// ties broken by insertion order.
func (e *Engine) bruteForce(q []float32, k int) []models.SearchResult {
	type scored struct {
		id    string
		doc   *store.StoredDocument
		score float64
	}
	scores := make([]scored, 0, e.store.Len())
	e.store.Each(func(id string, doc *store.StoredDocument) bool {
		scores = append(scores, scored{id: id, doc: doc, score: vector.Dot(q, doc.Embedding)})
		return true
	})
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	results := make([]models.SearchResult, k)
	for i := 0; i < k; i++ {
		results[i] = models.SearchResult{
			ID:       scores[i].id,
			Content:  scores[i].doc.Content,
			Metadata: scores[i].doc.Metadata,
			Score:    scores[i].score,
		}
	}
	return results
}

// hydrate joins vector hits with stored content and metadata. Hits whose
// document vanished from the store are dropped.
func (e *Engine) hydrate(hits []*vector.VectorResult) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		doc, ok := e.store.Get(hit.ID)
		if !ok {
			continue
		}
		results = append(results, models.SearchResult{
			ID:       hit.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    hit.Score,
		})
	}
	return results
}

// Delete removes id from the store and the graph, then fires OnDelete hooks.
// Returns false without firing hooks when id is absent. Hook errors
// propagate after the removal has happened; it is not rolled back.
func (e *Engine) Delete(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.Delete(id) {
		return false, nil
	}
	if e.hnsw != nil {
		e.hnsw.Delete(id)
	}
	for _, p := range e.registry.All() {
		if p.OnDelete == nil {
			continue
		}
		if err := p.OnDelete(ctx, id); err != nil {
			return true, fmt.Errorf("power %q onDelete: %w", p.Name, err)
		}
	}
	return true, nil
}

// Clear empties the store and the graph, then fires OnClear hooks.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clearLocked(ctx)
}

func (e *Engine) clearLocked(ctx context.Context) error {
	e.store.Clear()
	if e.hnsw != nil {
		e.hnsw.Clear()
	}
	for _, p := range e.registry.All() {
		if p.OnClear == nil {
			continue
		}
		if err := p.OnClear(ctx); err != nil {
			return fmt.Errorf("power %q onClear: %w", p.Name, err)
		}
	}
	return nil
}

// Size returns the number of stored documents.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Get returns the document for id.
func (e *Engine) Get(id string) (models.Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.store.Get(id)
	if !ok {
		return models.Document{}, false
	}
	return models.Document{ID: id, Content: doc.Content, Metadata: doc.Metadata}, true
}

// Routing returns the retrieval path the next search would take.
func (e *Engine) Routing() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.routingLocked()
}

func (e *Engine) routingLocked() string {
	if e.hnsw != nil && e.store.Len() > e.opts.ANNThreshold {
		return RoutingHNSW
	}
	return RoutingBruteForce
}

// Use registers a power. Fails when the name is already registered.
func (e *Engine) Use(p *power.Power) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Use(p)
}

// Eject removes the power with the given name. Returns false when absent.
func (e *Engine) Eject(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Eject(name)
}

// Powers returns the registered power names in registration order.
func (e *Engine) Powers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Names()
}
