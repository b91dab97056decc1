package nsfilter

import (
	"strings"
	"testing"
)

func TestAllowedWithDeclaredSet(t *testing.T) {
	f, err := Load(strings.NewReader("enwiki\n0\n10\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.Allowed("enwiki", 0) || !f.Allowed("enwiki", 10) {
		t.Fatal("expected namespaces 0 and 10 to be allowed")
	}
	if f.Allowed("enwiki", 1) {
		t.Fatal("namespace 1 was not declared and should be disallowed")
	}
}

func TestAllowedUndeclaredProjectAllowsEverything(t *testing.T) {
	f, err := Load(strings.NewReader("enwiki\n0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.Allowed("frwiki", 7) {
		t.Fatal("undeclared project should allow every namespace")
	}
}

func TestNilFilterAllowsEverything(t *testing.T) {
	var f *Filter
	if !f.Allowed("enwiki", 1) {
		t.Fatal("nil filter should allow every namespace")
	}
}
