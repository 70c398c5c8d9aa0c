package store

import (
	"fmt"
	"reflect"
	"testing"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a", &StoredDocument{Content: "first"})
	s.Put("b", &StoredDocument{Content: "second"})

	doc, ok := s.Get("a")
	if !ok || doc.Content != "first" {
		t.Fatalf("Get(a) = %v, %v", doc, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get of missing id returned ok")
	}
	if !s.Delete("a") {
		t.Error("Delete(a) returned false")
	}
	if s.Delete("a") {
		t.Error("second Delete(a) returned true")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestMemoryStore_OverwriteKeepsOrder(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a", &StoredDocument{Content: "1"})
	s.Put("b", &StoredDocument{Content: "2"})
	s.Put("a", &StoredDocument{Content: "updated"})

	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs = %v, want [a b]", got)
	}
	doc, _ := s.Get("a")
	if doc.Content != "updated" {
		t.Errorf("overwrite content = %q", doc.Content)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestMemoryStore_EachInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 10; i++ {
		s.Put(fmt.Sprintf("d%d", i), &StoredDocument{})
	}
	s.Delete("d3")
	var seen []string
	s.Each(func(id string, doc *StoredDocument) bool {
		seen = append(seen, id)
		return true
	})
	want := []string{"d0", "d1", "d2", "d4", "d5", "d6", "d7", "d8", "d9"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("Each order = %v, want %v", seen, want)
	}

	// Each stops when fn returns false.
	count := 0
	s.Each(func(id string, doc *StoredDocument) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("Each visited %d, want 3", count)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a", &StoredDocument{})
	s.Clear()
	if s.Len() != 0 || len(s.IDs()) != 0 {
		t.Error("clear left state behind")
	}
}
