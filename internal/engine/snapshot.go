package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/store"
	"github.com/hyperjump/shirabe/internal/vector"
)

// Export returns a snapshot of every document in insertion order, embeddings
// included as plain float lists.
func (e *Engine) Export() []models.ExportedDocument {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := make([]models.ExportedDocument, 0, e.store.Len())
	e.store.Each(func(id string, doc *store.StoredDocument) bool {
		entries = append(entries, models.ExportedDocument{
			ID:        id,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		})
		return true
	})
	return entries
}

// Import replaces the engine state with the snapshot: current state is
// cleared (OnClear hooks included), every entry is written to the store and
// the graph with its recorded embedding, and AfterAdd hooks run last so
// powers rebuild their own state from the imported documents. Embeddings are
// trusted to be unit-norm; only the dimension is checked.
func (e *Engine) Import(ctx context.Context, entries []models.ExportedDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range entries {
		if len(entry.Embedding) != e.opts.Dimensions {
			return fmt.Errorf("snapshot embedding dimension %d for %q, expected %d",
				len(entry.Embedding), entry.ID, e.opts.Dimensions)
		}
	}
	if err := e.clearLocked(ctx); err != nil {
		return err
	}

	docs := make([]models.Document, 0, len(entries))
	for _, entry := range entries {
		e.store.Put(entry.ID, &store.StoredDocument{
			Content:   entry.Content,
			Metadata:  entry.Metadata,
			Embedding: entry.Embedding,
		})
		if e.hnsw != nil {
			if err := e.hnsw.Insert(entry.ID, entry.Embedding); err != nil &&
				!errors.Is(err, vector.ErrDuplicateID) {
				return err
			}
		}
		docs = append(docs, models.Document{ID: entry.ID, Content: entry.Content, Metadata: entry.Metadata})
	}
	e.logger.Info("snapshot imported", zap.Int("documents", len(docs)))

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
