package extractor

import (
	"strings"
	"testing"
)

func TestExtractNihongoPage(t *testing.T) {
	body := `{{Nihongo|Cindy Aurum|シドニー・オールム|Shidonī Ōrumu|'Cidney'<ref name='SilMoogle'/>}} ` +
		`{{Infobox_person|name=[[Fred]] <!-- c -->|birth_date={{birth date|1984|12|13}}}} ` +
		`<ref>{{Cite web|url=http://a.com|title=Website}}</ref> {{sort|ABC}} ` +
		`{{math|''g'' : [[interval (mathematics)#Infinite endpoints|(−∞,+9] or [0,+∞)]] → ℝ}}`

	result := Extract(body)

	if len(result.Templates) != 6 {
		t.Fatalf("expected 6 templates, got %d: %v", len(result.Templates), result.Templates)
	}

	for marker, expansion := range result.Markers {
		if strings.Contains(expansion, markerStart) || strings.Contains(expansion, markerEnd) {
			t.Fatalf("marker %q expansion still contains a marker: %q", marker, expansion)
		}
	}
}

func TestExtractDeepNestingTerminates(t *testing.T) {
	body := "{{outer|1={{inner|1={{innermost|x=1}}}}}}"
	result := Extract(body)
	if len(result.Templates) != 3 {
		t.Fatalf("expected 3 templates, got %d: %v", len(result.Templates), result.Templates)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	body := `intro {{Infobox person|name=[[Fred]]|birth_date={{birth date|1984|12|13}}}} outro`
	result := Extract(body)

	for _, tmpl := range result.Templates {
		expanded := ExpandMarkers(tmpl, result.Markers)
		if !strings.Contains(body, expanded) {
			t.Fatalf("expanded template %q is not a substring of the body", expanded)
		}
	}
}

func TestExtractStripsMarkerBytesFromInput(t *testing.T) {
	body := "{{Sort|\x020\x03|ABC}}"
	result := Extract(body)
	if len(result.Templates) != 1 {
		t.Fatalf("templates = %v", result.Templates)
	}
	if strings.Contains(result.Templates[0], "\x020\x03") {
		t.Fatalf("input marker bytes survived: %q", result.Templates[0])
	}
}

func TestMarkerExpansionIsFlat(t *testing.T) {
	markers := map[string]string{
		"\x020\x03": "inner",
	}
	got := ExpandMarkers("before \x020\x03 after", markers)
	if got != "before inner after" {
		t.Fatalf("got %q", got)
	}
}
