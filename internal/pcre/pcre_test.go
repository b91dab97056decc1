package pcre

import "testing"

func TestMatchNamedAndNumberedCapture(t *testing.T) {
	re := MustCompile(`!\[\[(?P<content>[^\[\]]*?)\]\]!`)

	mv, ok := re.Match("Planet [[earth]] is home", 0)
	if !ok {
		t.Fatal("expected a match")
	}

	whole, err := mv.Get(0)
	if err != nil || whole.Text != "[[earth]]" || whole.Offset != 7 {
		t.Fatalf("whole match = %+v, err = %v", whole, err)
	}

	content, err := mv.Named("content")
	if err != nil || content.Text != "earth" || content.Offset != 9 {
		t.Fatalf("named capture = %+v, err = %v", content, err)
	}

	if _, err := mv.Named("missing"); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	if _, err := mv.Get(20); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange for bad index, got %v", err)
	}
}

func TestMatchAll(t *testing.T) {
	re := MustCompile(`!a(b(?:c|d))!`)

	matches := re.MatchAll("abc abd", 0)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	whole0, _ := matches[0].Get(0)
	cap0, _ := matches[0].Get(1)
	if whole0.Text != "abc" || whole0.Offset != 0 || cap0.Text != "bc" || cap0.Offset != 1 {
		t.Fatalf("match[0] = whole %+v cap %+v", whole0, cap0)
	}

	whole1, _ := matches[1].Get(0)
	cap1, _ := matches[1].Get(1)
	if whole1.Text != "abd" || whole1.Offset != 4 || cap1.Text != "bd" || cap1.Offset != 5 {
		t.Fatalf("match[1] = whole %+v cap %+v", whole1, cap1)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile("/abc"); err == nil {
		t.Fatal("expected error for missing ending delimiter")
	}
	if _, err := Compile("/abc/Z"); err != ErrBadModifier {
		t.Fatalf("expected ErrBadModifier, got %v", err)
	}
	if _, err := Compile("/[/"); err == nil {
		t.Fatal("expected compile error for unterminated character class")
	}
}

func TestReplaceBoundedCount(t *testing.T) {
	re := MustCompile(`/a/`)
	got := re.Replace("banana", "o", -1)
	if got != "bonono" {
		t.Fatalf("got %q", got)
	}
	got = re.Replace("banana", "o", 1)
	if got != "bonana" {
		t.Fatalf("limited replace got %q", got)
	}
}
