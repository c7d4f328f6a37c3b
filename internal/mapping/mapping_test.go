package mapping

import (
	"testing"
)

func TestResolve_Found(t *testing.T) {
	table := Table{"jlapp@biancatechnologies.com": "negascout@gmail.com"}

	dest, ok := table.Resolve("jlapp@biancatechnologies.com")
	if !ok {
		t.Fatal("expected a mapping")
	}
	if dest != "negascout@gmail.com" {
		t.Errorf("got %q, want %q", dest, "negascout@gmail.com")
	}
}

func TestResolve_NotFound(t *testing.T) {
	table := Table{"jlapp@biancatechnologies.com": "negascout@gmail.com"}

	if _, ok := table.Resolve("unknown@biancatechnologies.com"); ok {
		t.Error("expected no mapping for unknown address")
	}
}

func TestResolve_CaseAndWhitespaceInsensitive(t *testing.T) {
	table := Table{"foo@bar.com": "dest@gmail.com"}

	a, okA := table.Resolve(" Foo@Bar.COM ")
	b, okB := table.Resolve("foo@bar.com")
	if !okA || !okB {
		t.Fatal("expected both lookups to resolve")
	}
	if a != b {
		t.Errorf("lookups disagree: %q vs %q", a, b)
	}
}

func TestParseTable_NormalizesKeys(t *testing.T) {
	table, err := ParseTable(`{" JLapp@BiancaTechnologies.com ": "negascout@gmail.com"}`)
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}

	dest, ok := table.Resolve("jlapp@biancatechnologies.com")
	if !ok {
		t.Fatal("expected key to be normalized on load")
	}
	if dest != "negascout@gmail.com" {
		t.Errorf("got %q, want %q", dest, "negascout@gmail.com")
	}
}

func TestParseTable_Empty(t *testing.T) {
	table, err := ParseTable("")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %d entries", len(table))
	}
}

func TestParseTable_InvalidJSON(t *testing.T) {
	if _, err := ParseTable("{not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
