package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestNewKey(t *testing.T) {
	a := NewKey("svg", "x^2", "{}")
	if a != NewKey("svg", "x^2", "{}") {
		t.Fatalf("keys should be deterministic")
	}
	if a == NewKey("mml", "x^2", "{}") {
		t.Fatalf("kind must be part of the key")
	}
	// The separator keeps part boundaries distinct.
	if NewKey("svg", "ab", "c") == NewKey("svg", "a", "bc") {
		t.Fatalf("part boundaries collide")
	}
	if len(a.String()) != 64 {
		t.Fatalf("unexpected key string %q", a.String())
	}
}

func TestMemory_LRU(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	k1, k2, k3 := NewKey("svg", "1", ""), NewKey("svg", "2", ""), NewKey("svg", "3", "")

	_ = m.Put(ctx, k1, Entry{SVG: "one"})
	_ = m.Put(ctx, k2, Entry{SVG: "two"})
	if _, ok, _ := m.Get(ctx, k1); !ok {
		t.Fatalf("k1 should be present")
	}
	_ = m.Put(ctx, k3, Entry{SVG: "three"})

	if _, ok, _ := m.Get(ctx, k2); ok {
		t.Fatalf("k2 should have been evicted as least recently used")
	}
	if e, ok, _ := m.Get(ctx, k1); !ok || e.SVG != "one" {
		t.Fatalf("k1 = %+v, %v", e, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d", m.Len())
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, _, err := m.Get(ctx, k1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	key := NewKey("both", `\frac{1}{2}`, "{display:true}")
	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("empty cache Get() = %v, %v", ok, err)
	}
	if err := s.Put(ctx, key, Entry{SVG: "<svg/>", MathML: "<math/>"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, key, Entry{SVG: "<svg id=\"2\"/>", MathML: "<math/>"}); err != nil {
		t.Fatalf("overwrite Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	e, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = %v, %v", ok, err)
	}
	if e.SVG != `<svg id="2"/>` || e.MathML != "<math/>" {
		t.Fatalf("unexpected entry %+v", e)
	}
}
