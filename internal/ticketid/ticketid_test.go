package ticketid

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(filepath.Join(t.TempDir(), "counter.json"))
}

func TestNextFormatsIdentifier(t *testing.T) {
	g := newTestGenerator(t)
	id, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := fmt.Sprintf("TKT-%s-0001", time.Now().Format("2006"))
	if id != want {
		t.Fatalf("Next = %q, want %q", id, want)
	}
}

func TestNextIsPairwiseDistinct(t *testing.T) {
	g := newTestGenerator(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := g.Next(context.Background())
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}

func TestCounterSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	g := NewGenerator(path)
	for i := 0; i < 2; i++ {
		if _, err := g.Next(context.Background()); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	// A fresh generator over the same file continues the sequence
	// instead of reissuing identifiers.
	g2 := NewGenerator(path)
	id, err := g2.Next(context.Background())
	if err != nil {
		t.Fatalf("Next after restart: %v", err)
	}
	want := fmt.Sprintf("TKT-%s-0003", time.Now().Format("2006"))
	if id != want {
		t.Fatalf("Next after restart = %q, want %q", id, want)
	}
}

func TestSequenceIsScopedToPeriod(t *testing.T) {
	g := newTestGenerator(t)
	g.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	id, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != "TKT-2024-0001" {
		t.Fatalf("Next = %q, want TKT-2024-0001", id)
	}

	g.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	id, err = g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != "TKT-2025-0001" {
		t.Fatalf("new period should restart sequence, got %q", id)
	}
}
