// Package e2e provides end-to-end tests with a generated corpus and multiple queries.
package e2e

import (
	"fmt"

	"github.com/hyperjump/shirabe/internal/models"
)

// QueryTestCase defines a query and the document IDs that must appear in the
// search results.
type QueryTestCase struct {
	Query          string
	ExpectedDocIDs []string
	Description    string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents []models.Document
	TestCases []QueryTestCase
}

var topics = []struct {
	key   string
	words string
}{
	{"cooking", "recipe kitchen simmer saucepan seasoning garlic"},
	{"astronomy", "telescope nebula galaxy orbit constellation parallax"},
	{"databases", "transaction index query optimizer shard replication"},
	{"gardening", "seedling compost pruning perennial mulch trellis"},
	{"sailing", "mainsail rudder keel spinnaker tack leeward"},
	{"chess", "gambit endgame zugzwang castling tempo blockade"},
	{"medicine", "diagnosis symptom prescription dosage pathology triage"},
	{"music", "harmony cadence arpeggio crescendo timbre counterpoint"},
}

// BuildCorpus returns n documents cycling through the topic vocabulary, each
// carrying a unique signature phrase, plus query test cases that assert the
// signature document is found.
func BuildCorpus(n int) *Corpus {
	docs := make([]models.Document, n)
	for i := range docs {
		topic := topics[i%len(topics)]
		docs[i] = models.Document{
			ID: fmt.Sprintf("doc-%d", i),
			Content: fmt.Sprintf("%s notes volume %d signature%d covering %s in depth",
				topic.key, i, i, topic.words),
			Metadata: map[string]interface{}{"topic": topic.key, "n": i},
		}
	}
	var cases []QueryTestCase
	for i := 0; i < n && len(cases) < 10; i += n/10 + 1 {
		cases = append(cases, QueryTestCase{
			Query:          fmt.Sprintf("signature%d %s", i, topics[i%len(topics)].key),
			ExpectedDocIDs: []string{fmt.Sprintf("doc-%d", i)},
			Description:    fmt.Sprintf("signature phrase of doc-%d", i),
		})
	}
	return &Corpus{Documents: docs, TestCases: cases}
}
