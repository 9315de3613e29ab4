package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4.1-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4.1-mini")
	}
	if got := c.Cost(1_000_000, 500_000); math.Abs(got-1.2) > 1e-9 {
		t.Fatalf("Cost = %v, want 1.2", got)
	}

	if LookupCost("google/gemini-2.0-flash-001") == nil {
		t.Fatal("expected vendor-prefixed ID to resolve")
	}
	if LookupCost("mock") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
