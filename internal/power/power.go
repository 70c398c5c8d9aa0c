// Package power implements the engine extension pipeline. A Power is a plain
// record of optional hooks; the registry is an ordered sequence the engine
// iterates, dispatching whichever hooks are present.
package power

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/shirabe/internal/models"
)

// ErrPowerExists indicates Use was called with an already-registered name.
var ErrPowerExists = errors.New("power already registered")

// EmbedFunc produces one unit-norm embedding per input text.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// SearchContext carries the query through the search hook chain. BeforeSearch
// hooks may rewrite Query or short-circuit the search with a result list.
type SearchContext struct {
	Query string
	TopK  int

	shortCircuit   []models.SearchResult
	shortCircuited bool
}

// SetShortCircuit makes the engine return results immediately, bypassing
// embedding and core retrieval. Remaining BeforeSearch hooks do not run.
func (sc *SearchContext) SetShortCircuit(results []models.SearchResult) {
	sc.shortCircuit = results
	sc.shortCircuited = true
}

// ShortCircuited returns the short-circuit results and whether one was set.
func (sc *SearchContext) ShortCircuited() ([]models.SearchResult, bool) {
	return sc.shortCircuit, sc.shortCircuited
}

// Power is an extension record. Every hook is optional; Name is required and
// unique within a registry. Hooks must not mutate the result slices they
// receive; they return a new list instead.
type Power struct {
	Name string

	// BeforeAdd may transform the document list before embedding.
	BeforeAdd func(ctx context.Context, docs []models.Document) ([]models.Document, error)
	// AfterAdd observes the final document list after it is stored and indexed.
	AfterAdd func(ctx context.Context, docs []models.Document) error
	// BeforeSearch may rewrite the query or short-circuit via the context.
	BeforeSearch func(ctx context.Context, sc *SearchContext) error
	// AfterSearch receives the current result list and the post-hook query
	// context and returns the next list.
	AfterSearch func(ctx context.Context, sc *SearchContext, results []models.SearchResult) ([]models.SearchResult, error)
	// Embed overrides the engine's embedder. When several registered powers
	// define Embed, the most recently registered wins.
	Embed EmbedFunc
	// OnDelete observes document removal.
	OnDelete func(ctx context.Context, id string) error
	// OnClear observes the engine being cleared.
	OnClear func(ctx context.Context) error
}

// Registry is an ordered sequence of powers. It is not safe for concurrent
// use; the engine serializes access.
type Registry struct {
	powers []*Power
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Use appends p to the registry. Fails when a power with the same name is
// already registered.
func (r *Registry) Use(p *Power) error {
	for _, existing := range r.powers {
		if existing.Name == p.Name {
			return fmt.Errorf("%w: %q", ErrPowerExists, p.Name)
		}
	}
	r.powers = append(r.powers, p)
	return nil
}

// Eject removes the power with the given name. Returns false when absent.
func (r *Registry) Eject(name string) bool {
	for i, p := range r.powers {
		if p.Name == name {
			r.powers = append(r.powers[:i], r.powers[i+1:]...)
			return true
		}
	}
	return false
}

// All returns the powers in registration order.
func (r *Registry) All() []*Power {
	return r.powers
}

// Names returns the registered power names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.powers))
	for i, p := range r.powers {
		names[i] = p.Name
	}
	return names
}

// ResolveEmbedder scans the registry in reverse registration order and
// returns the first Embed hook found (last writer wins), or nil when no
// registered power overrides the embedder.
func (r *Registry) ResolveEmbedder() EmbedFunc {
	for i := len(r.powers) - 1; i >= 0; i-- {
		if r.powers[i].Embed != nil {
			return r.powers[i].Embed
		}
	}
	return nil
}
