// Package extractor implements the nested-construct template extractor:
// a fixed-point, precedence-ordered, marker-based rewriter that pulls
// every {{...}} template invocation, nested ones included, out of a
// wikitext page body,
// replacing interior nested constructs (triple-brace parameters, HTML,
// tables, links, and templates themselves) with synthetic markers so that
// brace/bracket counting never has to recurse into them.
//
// A match is collapsed into a marker only once nothing in its content
// can still be resolved by any tier, and any collapse restarts scanning
// from tier 1 rather than continuing deeper into the same pass.
package extractor

import (
	"strconv"
	"strings"

	"github.com/bamyers99/mwtemplateparser/internal/pcre"
)

// MaxIterations bounds the fixed-point loop; exceeding it yields a
// silent partial result rather than an error.
const MaxIterations = 1000

var (
	commentRegex = pcre.MustCompile(`!<!--.*?-->!us`)
	nowikiRegex  = pcre.MustCompile(`!<\s*nowiki\s*>.*?<\s*/\s*nowiki\s*>!usi`)
	brRegex      = pcre.MustCompile(`!<\s*br\s*/?\s*>!usi`)

	markerStart = "\x02"
	markerEnd   = "\x03"
)

type tier struct {
	name  string
	regex *pcre.Regexp
}

// TemplateRegex is the "template" tier's regex, re-exported so the
// invocation parser can re-match it against an already-extracted template
// string to pull out name and params.
var TemplateRegex = pcre.MustCompile(`!\{\{\s*(?P<content>(?P<name>[^{}\|]+?)(?:\|(?P<params>[^{}]+?))?\}\})!`)

// tiers lists the grammar regexes in fixed precedence order. Each defines
// a "content" named capture used both for the nested-container test and
// for the recursive-reduction ordering.
var tiers = []tier{
	{"passed_param", pcre.MustCompile(`!\{\{\{(?P<content>[^{}]*?\}\}\})!`)},
	{"htmlstub", pcre.MustCompile(`!<\s*(?P<content>[\w]+(?:(?:\s+\w+(?:\s*=\s*(?:"[^"]*+"|'[^']*+'|[^'">\s]+))?)+\s*|\s*)/>)!`)},
	{"html", pcre.MustCompile(`!<\s*(?P<tag>[\w]+)[^>]*>(?P<content>.*?<\s*/\s*(?P=tag)\s*>)!s`)},
	{"template", TemplateRegex},
	{"table", pcre.MustCompile(`!\{\|(?P<content>[^{]*?\|\})!`)},
	{"link", pcre.MustCompile(`/\[\[(?P<content>(?:.(?!\[\[))+?\]\])/s`)},
}

// Result holds the templates pulled from one page body and the marker
// dictionary built while extracting them.
type Result struct {
	Templates []string
	Markers   map[string]string
}

// Extract runs the fixed-point rewriter over a page body and returns the
// template invocation strings, nested ones included, in the order they
// were collapsed, so a nested template precedes the one containing it
// (still carrying any markers for
// constructs nested inside them) plus the marker dictionary, whose
// entries are fully marker-resolved at assignment time.
func Extract(body string) Result {
	data := preprocess(body)
	markers := make(map[string]string)
	var templates []string

	for iter := 0; iter < MaxIterations; iter++ {
		if !runPass(&data, markers, &templates) {
			break
		}
	}

	return Result{Templates: templates, Markers: markers}
}

func preprocess(body string) string {
	// The marker bytes cannot occur in well-formed XML text; strip any
	// that slipped through so input can never forge a dictionary token.
	body = strings.ReplaceAll(body, markerStart, "")
	body = strings.ReplaceAll(body, markerEnd, "")

	data := commentRegex.Replace(body, "", -1)
	data = nowikiRegex.Replace(data, "", -1)
	data = brRegex.Replace(data, " ", -1)
	return data
}

// runPass scans tiers in order against the current data. The first tier
// that collapses at least one match mutates data and the marker/template
// lists in place and reports true so the caller restarts from tier 1.
func runPass(data *string, markers map[string]string, templates *[]string) bool {
	for _, t := range tiers {
		matches := t.regex.MatchAll(*data, 0)
		if len(matches) == 0 {
			continue
		}

		offsetAdjust := 0
		collapsedAny := false

		for _, m := range matches {
			content, err := m.Named("content")
			if err != nil {
				continue
			}
			if containsNestedConstruct(content.Text) {
				continue // deferred: resolve its children first
			}

			whole, err := m.Get(0)
			if err != nil {
				continue
			}

			curOffset := whole.Offset - offsetAdjust
			curLen := len(whole.Text)
			marker := markerStart + strconv.Itoa(len(markers)) + markerEnd

			*data = (*data)[:curOffset] + marker + (*data)[curOffset+curLen:]
			offsetAdjust += curLen - len(marker)

			if t.name == "template" {
				*templates = append(*templates, whole.Text)
			}

			markers[marker] = expandMarkersOnce(whole.Text, markers)
			collapsedAny = true
		}

		if collapsedAny {
			return true
		}
	}
	return false
}

// containsNestedConstruct reports whether any tier's regex — including
// the tier currently being tested — matches somewhere inside s.
func containsNestedConstruct(s string) bool {
	for _, t := range tiers {
		if _, ok := t.regex.Match(s, 0); ok {
			return true
		}
	}
	return false
}

// expandMarkersOnce replaces every marker token in s with its dictionary
// expansion. A single linear pass suffices because dictionary values are
// themselves marker-free by construction (invariant: markers are resolved
// fully before being stored).
func expandMarkersOnce(s string, markers map[string]string) string {
	if !strings.Contains(s, markerStart) {
		return s
	}
	var b strings.Builder
	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], markerStart[0])
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		end := strings.IndexByte(s[start+1:], markerEnd[0])
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		end += start + 1
		token := s[start : end+1]
		digits := s[start+1 : end]
		if isAllDigits(digits) {
			if expansion, ok := markers[token]; ok {
				b.WriteString(s[i:start])
				b.WriteString(expansion)
				i = end + 1
				continue
			}
		}
		b.WriteString(s[i : start+1])
		i = start + 1
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ExpandMarkers fully expands every marker in s against the given marker
// dictionary. Exported for the invocation parser, which must expand
// markers in extracted names, keys and values.
func ExpandMarkers(s string, markers map[string]string) string {
	return expandMarkersOnce(s, markers)
}
