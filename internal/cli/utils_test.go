package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
)

func sampleResults() []models.SearchResult {
	return []models.SearchResult{
		{ID: "1", Content: "first hit content", Score: 0.91},
		{ID: "2", Content: "second hit content", Score: 0.42},
	}
}

func TestWriteSearchResultsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "test query", sampleResults(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Found 2 results") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "ID: 1") || !strings.Contains(out, "ID: 2") {
		t.Errorf("missing ids in %q", out)
	}
	if !strings.Contains(out, "0.9100") {
		t.Errorf("missing score in %q", out)
	}
}

func TestWriteSearchResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "test query", sampleResults(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []models.SearchResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[0].ID != "1" {
		t.Errorf("decoded = %+v", decoded)
	}
}
