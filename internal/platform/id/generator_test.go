package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	g := NewUUIDGenerator()
	a, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, _ := g.NewID()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected uuid, got %q: %v", a, err)
	}
}

func TestSequenceGenerator_NewID(t *testing.T) {
	g := &SequenceGenerator{Prefix: "ts-"}
	first, _ := g.NewID()
	second, _ := g.NewID()
	if first != "ts-1" || second != "ts-2" {
		t.Fatalf("unexpected sequence: %s %s", first, second)
	}
}
