package engine

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/power"
)

func TestEngine_ExportImportRoundTrip(t *testing.T) {
	e := newTestEngine(t, defaultTestOptions())
	ctx := context.Background()

	docs := make([]models.Document, 20)
	for i := range docs {
		docs[i] = models.Document{
			ID:       fmt.Sprintf("d%d", i),
			Content:  fmt.Sprintf("snapshot corpus entry number %d", i),
			Metadata: map[string]interface{}{"n": i},
		}
	}
	if err := e.Add(ctx, docs); err != nil {
		t.Fatal(err)
	}

	before, err := e.Search(ctx, "snapshot corpus entry number 7", 5)
	if err != nil {
		t.Fatal(err)
	}

	exported := e.Export()
	if len(exported) != 20 {
		t.Fatalf("exported %d entries, want 20", len(exported))
	}
	for _, entry := range exported {
		var sum float64
		for _, v := range entry.Embedding {
			sum += float64(v * v)
		}
		if math.Abs(sum-1) > 1e-4 {
			t.Errorf("exported embedding for %s not unit-norm: %v", entry.ID, sum)
		}
	}

	if err := e.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 0 {
		t.Fatal("clear did not empty the engine")
	}
	if err := e.Import(ctx, exported); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 20 {
		t.Fatalf("size after import = %d, want 20", e.Size())
	}

	after, err := e.Search(ctx, "snapshot corpus entry number 7", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 5 {
		t.Fatalf("search after import returned %d results, want 5", len(after))
	}
	beforeIDs := make([]string, len(before))
	afterIDs := make([]string, len(after))
	for i := range before {
		beforeIDs[i] = before[i].ID
		afterIDs[i] = after[i].ID
	}
	if !reflect.DeepEqual(beforeIDs, afterIDs) {
		t.Errorf("search results changed across round-trip: %v vs %v", beforeIDs, afterIDs)
	}
}

func TestEngine_ImportRebuildsPowerState(t *testing.T) {
	e := newTestEngine(t, defaultTestOptions())
	ctx := context.Background()
	alpha := 0.0
	if err := e.Use(power.NewHybridSearch(power.HybridSearchOptions{Alpha: &alpha})); err != nil {
		t.Fatal(err)
	}
	if err := e.Add(ctx, []models.Document{
		{ID: "match", Content: "zygote cell biology embryo fertilisation"},
		{ID: "nomatch", Content: "machine learning neural network transformer"},
	}); err != nil {
		t.Fatal(err)
	}
	exported := e.Export()

	// Import into a fresh engine with the same power: AfterAdd hooks must
	// rebuild the BM25 state from the imported documents.
	e2 := newTestEngine(t, defaultTestOptions())
	if err := e2.Use(power.NewHybridSearch(power.HybridSearchOptions{Alpha: &alpha})); err != nil {
		t.Fatal(err)
	}
	if err := e2.Import(ctx, exported); err != nil {
		t.Fatal(err)
	}
	results, err := e2.Search(ctx, "zygote", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ID != "match" {
		t.Fatalf("keyword state not rebuilt after import: %v", results)
	}
}

func TestEngine_ImportReplacesState(t *testing.T) {
	e := newTestEngine(t, defaultTestOptions())
	ctx := context.Background()
	if err := e.Add(ctx, []models.Document{{ID: "old", Content: "previous generation"}}); err != nil {
		t.Fatal(err)
	}
	e2 := newTestEngine(t, defaultTestOptions())
	if err := e2.Add(ctx, []models.Document{{ID: "new", Content: "next generation"}}); err != nil {
		t.Fatal(err)
	}
	if err := e.Import(ctx, e2.Export()); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 1 {
		t.Fatalf("size = %d, want 1", e.Size())
	}
	if _, ok := e.Get("old"); ok {
		t.Error("import kept a pre-existing document")
	}
	if _, ok := e.Get("new"); !ok {
		t.Error("import missed the snapshot document")
	}
}

func TestEngine_ImportRejectsWrongDimension(t *testing.T) {
	e := newTestEngine(t, defaultTestOptions())
	err := e.Import(context.Background(), []models.ExportedDocument{
		{ID: "bad", Content: "text", Embedding: make([]float32, 3)},
	})
	if err == nil {
		t.Fatal("import accepted a wrong-dimension embedding")
	}
	if e.Size() != 0 {
		t.Errorf("failed import left %d documents", e.Size())
	}
}
