package excludepolicy

import (
	"strings"
	"testing"
)

func TestDecisionProjectSpecific(t *testing.T) {
	tsv := "enwiki\n10\n20\n" +
		"dewiki\n30\n"
	p, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Decision(10, "enwiki") {
		t.Fatal("expected 10 excluded for enwiki")
	}
	if p.Decision(30, "enwiki") {
		t.Fatal("30 should not be excluded for enwiki")
	}
	if !p.Decision(30, "dewiki") {
		t.Fatal("expected 30 excluded for dewiki")
	}
}

func TestDecisionCatchAllSection(t *testing.T) {
	tsv := "*\n99\n"
	p, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Decision(99, "anyproject") {
		t.Fatal("expected catch-all section to apply to every project")
	}
}

func TestNilPolicyNeverExcludes(t *testing.T) {
	var p *Policy
	if p.Decision(1, "enwiki") {
		t.Fatal("nil policy should never exclude")
	}
}
