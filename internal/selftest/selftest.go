// Package selftest is the embedded sanity-check suite behind the CLI's
// -t flag: a handful of hard assertions against the regex façade,
// exercised both as ordinary go test cases and as a standalone
// diagnostic mode so a broken engine/library pairing fails loudly
// before a multi-hour dump run starts.
package selftest

import (
	"fmt"

	"github.com/bamyers99/mwtemplateparser/internal/pcre"
)

// Failure describes one failed assertion, with enough detail to report
// from the CLI without a debugger attached.
type Failure struct {
	Name    string
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Message)
}

type check struct {
	name string
	fn   func() error
}

var checks = []check{
	{"compile_missing_delimiter", checkMissingDelimiter},
	{"compile_invalid_modifier", checkInvalidModifier},
	{"compile_error_reported", checkCompileErrorReported},
	{"match_named_and_numbered_capture", checkNamedAndNumberedCapture},
	{"match_named_capture_unset", checkNamedCaptureUnset},
	{"match_all_count", checkMatchAllCount},
	{"match_all_empty_match_advance", checkEmptyMatchAdvance},
	{"replace_bounded_count", checkReplaceBoundedCount},
}

// Run executes every check and returns the failures, if any. A nil/empty
// result means every check passed.
func Run() []Failure {
	var failures []Failure
	for _, c := range checks {
		if err := c.fn(); err != nil {
			failures = append(failures, Failure{Name: c.name, Message: err.Error()})
		}
	}
	return failures
}

func checkMissingDelimiter() error {
	_, err := pcre.Compile("no delimiters here")
	if err == nil {
		return fmt.Errorf("expected a compile error for an undelimited pattern")
	}
	return nil
}

func checkInvalidModifier() error {
	_, err := pcre.Compile("/abc/Z")
	if err == nil {
		return fmt.Errorf("expected a compile error for modifier 'Z'")
	}
	return nil
}

func checkCompileErrorReported() error {
	_, err := pcre.Compile("/[abc/")
	if err == nil {
		return fmt.Errorf("expected a compile error for an unterminated character class")
	}
	if ce, ok := err.(*pcre.CompileError); ok && ce.Message == "" {
		return fmt.Errorf("expected a non-empty underlying engine message")
	}
	return nil
}

func checkNamedAndNumberedCapture() error {
	re := pcre.MustCompile(`/\[\[(?P<content>[^\]]+)\]\]/`)
	mv, ok := re.Match("see [[earth]] for details", 0)
	if !ok {
		return fmt.Errorf("expected a match")
	}
	named, err := mv.Named("content")
	if err != nil || named.Text != "earth" {
		return fmt.Errorf("named capture = %q, err=%v, want \"earth\"", named.Text, err)
	}
	numbered, err := mv.Get(1)
	if err != nil || numbered.Text != "earth" {
		return fmt.Errorf("numbered capture = %q, err=%v, want \"earth\"", numbered.Text, err)
	}
	whole, err := mv.Get(0)
	if err != nil || whole.Text != "[[earth]]" {
		return fmt.Errorf("whole match = %q, err=%v", whole.Text, err)
	}
	return nil
}

func checkNamedCaptureUnset() error {
	re := pcre.MustCompile(`/(?P<a>x)|(?P<b>y)/`)
	mv, ok := re.Match("y", 0)
	if !ok {
		return fmt.Errorf("expected a match")
	}
	if mv.IsSet("a") {
		return fmt.Errorf("capture 'a' should not be set when only 'b' participated")
	}
	if !mv.IsSet("b") {
		return fmt.Errorf("capture 'b' should be set")
	}
	return nil
}

func checkMatchAllCount() error {
	re := pcre.MustCompile(`/ab[cd]/`)
	matches := re.MatchAll("abc abd abe", 0)
	if len(matches) != 2 {
		return fmt.Errorf("matchAll count = %d, want 2", len(matches))
	}
	return nil
}

func checkEmptyMatchAdvance() error {
	re := pcre.MustCompile(`/a*/`)
	matches := re.MatchAll("baaab", 0)
	if len(matches) == 0 {
		return fmt.Errorf("expected at least one match in a zero-or-more scan of %q", "baaab")
	}
	seen := make(map[int]bool)
	for _, mv := range matches {
		whole, _ := mv.Get(0)
		if seen[whole.Offset] {
			return fmt.Errorf("duplicate match offset %d: empty-match advance did not move forward", whole.Offset)
		}
		seen[whole.Offset] = true
	}
	return nil
}

func checkReplaceBoundedCount() error {
	re := pcre.MustCompile(`/a/`)
	got := re.Replace("aaaa", "b", 2)
	if got != "bbaa" {
		return fmt.Errorf("Replace bounded count = %q, want %q", got, "bbaa")
	}
	return nil
}
