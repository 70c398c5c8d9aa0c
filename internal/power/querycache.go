package power

import (
	"container/list"
	"context"
	"time"

	"github.com/hyperjump/shirabe/internal/models"
)

// Query cache defaults.
const (
	QueryCacheName   = "query-cache"
	DefaultCacheSize = 100
	DefaultCacheTTL  = 60 * time.Second
)

// QueryCacheOptions configures the query cache power. Zero values use the
// defaults above.
type QueryCacheOptions struct {
	MaxSize int
	TTL     time.Duration
}

type cachedQuery struct {
	query     string
	results   []models.SearchResult
	expiresAt time.Time
}

// queryCache caches search results by exact query string. Eviction is by
// insertion order once MaxSize entries are held; freshness is bounded only
// by the TTL and by clear events — adds and deletes are not observed.
type queryCache struct {
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

func newQueryCache(opts QueryCacheOptions) *queryCache {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultCacheSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	return &queryCache{
		maxSize: opts.MaxSize,
		ttl:     opts.TTL,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

func (qc *queryCache) beforeSearch(ctx context.Context, sc *SearchContext) error {
	elem, ok := qc.entries[sc.Query]
	if !ok {
		return nil
	}
	entry := elem.Value.(*cachedQuery)
	if qc.now().After(entry.expiresAt) {
		qc.order.Remove(elem)
		delete(qc.entries, entry.query)
		return nil
	}
	sc.SetShortCircuit(entry.results)
	return nil
}

func (qc *queryCache) afterSearch(ctx context.Context, sc *SearchContext, results []models.SearchResult) ([]models.SearchResult, error) {
	if elem, ok := qc.entries[sc.Query]; ok {
		entry := elem.Value.(*cachedQuery)
		entry.results = results
		entry.expiresAt = qc.now().Add(qc.ttl)
		return results, nil
	}
	if qc.order.Len() >= qc.maxSize {
		if oldest := qc.order.Front(); oldest != nil {
			qc.order.Remove(oldest)
			delete(qc.entries, oldest.Value.(*cachedQuery).query)
		}
	}
	entry := &cachedQuery{query: sc.Query, results: results, expiresAt: qc.now().Add(qc.ttl)}
	qc.entries[sc.Query] = qc.order.PushBack(entry)
	return results, nil
}

func (qc *queryCache) onClear(ctx context.Context) error {
	qc.entries = make(map[string]*list.Element)
	qc.order.Init()
	return nil
}

// NewQueryCache creates the query cache power. Cache keys are exact query
// strings; semantically equivalent queries are not unified.
func NewQueryCache(opts QueryCacheOptions) *Power {
	qc := newQueryCache(opts)
	return &Power{
		Name:         QueryCacheName,
		BeforeSearch: qc.beforeSearch,
		AfterSearch:  qc.afterSearch,
		OnClear:      qc.onClear,
	}
}
