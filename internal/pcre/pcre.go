// Package pcre wraps a PCRE-compatible engine behind a delimited-pattern
// façade: /pattern/modifiers style compilation, single-match, find-all and
// bounded-count replace, with numbered and named capture access.
//
// The first character of a raw pattern is the opening delimiter, the
// matching closing delimiter (found by scanning from the end) terminates
// the body, and everything after it is modifier letters.
package pcre

import (
	"fmt"
	"strings"
	"unicode/utf8"

	libpcre "github.com/gijsbers/go-pcre"
)

// Error kinds surfaced by Compile.
var (
	ErrBadDelimiter = fmt.Errorf("pcre: bad delimiter")
	ErrBadModifier  = fmt.Errorf("pcre: bad modifier")
)

// CompileError reports a PCRE compilation failure with the engine's
// message. Compile does not fill in Offset: it is always 0, so the
// position at which compilation stopped is not reported.
type CompileError struct {
	Pattern string
	Message string
	Offset  int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Pattern, e.Offset, e.Message)
}

// ErrOutOfRange is returned by MatchVector accessors for an unknown name
// or an index outside the captured group count.
var ErrOutOfRange = fmt.Errorf("pcre: capture out of range")

var closingDelim = map[byte]byte{
	'(': ')', ')': ')',
	'{': '}', '}': '}',
	'[': ']', ']': ']',
	'<': '>', '>': '>',
}

// modifier letters accepted after the closing delimiter. The values are
// the underlying engine's compile-time option bits; J carries the
// PCRE_INFO_JCHANGED info-query constant ORed into the compile options,
// and no caller relies on it doing anything useful. S is accepted and
// always ignored.
const pcreInfoJChanged = 13

var modifierBits = map[byte]int{
	'i': libpcre.CASELESS,
	'm': libpcre.MULTILINE,
	's': libpcre.DOTALL,
	'x': libpcre.EXTENDED,
	'A': libpcre.ANCHORED,
	'D': libpcre.DOLLAR_ENDONLY,
	'S': -1,
	'U': libpcre.UNGREEDY,
	'X': libpcre.EXTRA,
	'J': pcreInfoJChanged,
	'u': libpcre.UTF8 | libpcre.UCP,
}

// Regexp is a compiled delimited pattern, ready for repeated matching.
type Regexp struct {
	re      libpcre.Regexp
	names   map[string]int // capture name -> 1-based group index
	pattern string
}

// Compile parses a delimited pattern ("!...!u", "/.../is", etc.) and
// compiles its body with the PCRE engine.
func Compile(pattern string) (*Regexp, error) {
	if len(pattern) < 3 {
		return nil, &CompileError{Pattern: pattern, Message: "pattern too short - 3 char min"}
	}

	startDelim := pattern[0]
	endDelim := startDelim
	if d, ok := closingDelim[startDelim]; ok {
		endDelim = d
	}

	endPos := strings.LastIndexByte(pattern, endDelim)
	if endPos <= 0 {
		return nil, ErrBadDelimiter
	}

	mods := pattern[endPos+1:]
	options := 0
	for i := 0; i < len(mods); i++ {
		c := mods[i]
		if c == ' ' || c == '\n' {
			continue
		}
		bit, ok := modifierBits[c]
		if !ok {
			return nil, ErrBadModifier
		}
		if bit > 0 {
			options |= bit
		}
	}

	body := pattern[1:endPos]

	re, err := libpcre.Compile(body, options)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Message: err.Error()}
	}

	return &Regexp{re: re, names: extractNames(body), pattern: pattern}, nil
}

// MustCompile is Compile but panics on error, for package-level regex
// tables initialised at startup.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// extractNames scans a pattern body for (?P<name>...), (?<name>...) and
// (?'name'...) constructs, assigning 1-based group indices in the same
// left-to-right order PCRE itself assigns capture numbers, counting every
// other non-escaped, non-special '(' as an anonymous capturing group.
func extractNames(body string) map[string]int {
	names := make(map[string]int)
	group := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '[' {
			// character class: skip to matching ']', first ']' may be literal
			i++
			if i < len(body) && body[i] == '^' {
				i++
			}
			if i < len(body) && body[i] == ']' {
				i++
			}
			for i < len(body) && body[i] != ']' {
				if body[i] == '\\' {
					i++
				}
				i++
			}
			continue
		}
		if c != '(' {
			continue
		}
		if i+1 < len(body) && body[i+1] == '?' {
			rest := body[i+2:]
			switch {
			case strings.HasPrefix(rest, "P<") || strings.HasPrefix(rest, "<") && !strings.HasPrefix(rest, "<=") && !strings.HasPrefix(rest, "<!"):
				start := i + 2
				if body[start] == 'P' {
					start++
				}
				start++ // skip '<'
				end := strings.IndexByte(body[start:], '>')
				if end < 0 {
					continue
				}
				group++
				names[body[start:start+end]] = group
				i = start + end
			case strings.HasPrefix(rest, "'"):
				start := i + 3
				end := strings.IndexByte(body[start:], '\'')
				if end < 0 {
					continue
				}
				group++
				names[body[start:start+end]] = group
				i = start + end
			default:
				// (?:...) (?=...) (?!...) (?i) etc: not capturing
			}
			continue
		}
		group++
	}
	return names
}

// MatchItem is a single captured span: its byte offset into the subject
// and its text.
type MatchItem struct {
	Offset int
	Text   string
}

// MatchVector is the ordered set of captures from one successful match,
// accessible by numbered index (0 = whole match) or by capture name.
type MatchVector struct {
	items []MatchItem
	names map[string]int
}

// Len returns the number of items (whole match plus numbered captures).
func (mv *MatchVector) Len() int { return len(mv.items) }

// Get returns the group at the given numbered index (0 = whole match).
func (mv *MatchVector) Get(index int) (MatchItem, error) {
	if index < 0 || index >= len(mv.items) {
		return MatchItem{}, ErrOutOfRange
	}
	return mv.items[index], nil
}

// Named returns the group captured under the given name.
func (mv *MatchVector) Named(name string) (MatchItem, error) {
	idx, ok := mv.names[name]
	if !ok || idx >= len(mv.items) {
		return MatchItem{}, ErrOutOfRange
	}
	return mv.items[idx], nil
}

// IsSet reports whether a named capture exists and participated in the
// match (a present-but-empty capture still counts as set).
func (mv *MatchVector) IsSet(name string) bool {
	idx, ok := mv.names[name]
	return ok && idx < len(mv.items) && mv.items[idx].Offset >= 0
}

func (re *Regexp) buildMatchVector(m *libpcre.Matcher, subject string, base int) *MatchVector {
	groups := re.re.Groups()
	items := make([]MatchItem, 0, groups+1)
	for i := 0; i <= groups; i++ {
		if !m.Present(i) {
			items = append(items, MatchItem{Offset: -1})
			continue
		}
		loc := m.GroupIndices(i)
		items = append(items, MatchItem{Offset: base + loc[0], Text: subject[base+loc[0] : base+loc[1]]})
	}
	return &MatchVector{items: items, names: re.names}
}

// Match returns at most one match starting at or after start.
func (re *Regexp) Match(subject string, start int) (*MatchVector, bool) {
	if start > len(subject) {
		return nil, false
	}
	m := re.re.MatcherString(subject[start:], 0)
	if !m.Matches() {
		return nil, false
	}
	return re.buildMatchVector(m, subject, start), true
}

// MatchAll repeatedly matches, advancing past each match (and, for an
// empty-length match, over a whole CRLF pair if one starts there, else by
// one whole UTF-8 scalar, or one byte for invalid UTF-8 — the
// Perl-compatible empty-match advance rule).
func (re *Regexp) MatchAll(subject string, start int) []*MatchVector {
	var out []*MatchVector
	pos := start
	for pos <= len(subject) {
		m := re.re.MatcherString(subject[pos:], 0)
		if !m.Matches() {
			break
		}
		loc := m.GroupIndices(0)
		matchStart := pos + loc[0]
		matchEnd := pos + loc[1]
		out = append(out, re.buildMatchVector(m, subject, pos))

		if matchEnd > matchStart {
			pos = matchEnd
			continue
		}

		// Empty match: advance before continuing.
		if matchEnd >= len(subject) {
			break
		}
		if subject[matchEnd] == '\r' && matchEnd+1 < len(subject) && subject[matchEnd+1] == '\n' {
			pos = matchEnd + 2
			continue
		}
		_, size := utf8.DecodeRuneInString(subject[matchEnd:])
		if size < 1 {
			size = 1
		}
		pos = matchEnd + size
	}
	return out
}

// Replace performs a bounded-count literal replacement of every match
// with repl (no backreference interpolation). limit < 0 means unbounded.
func (re *Regexp) Replace(subject, repl string, limit int) string {
	if limit == 0 {
		return subject
	}
	var b strings.Builder
	last := 0
	count := 0
	matches := re.MatchAll(subject, 0)
	for _, mv := range matches {
		if limit > 0 && count >= limit {
			break
		}
		whole, _ := mv.Get(0)
		b.WriteString(subject[last:whole.Offset])
		b.WriteString(repl)
		last = whole.Offset + len(whole.Text)
		count++
	}
	b.WriteString(subject[last:])
	return b.String()
}
