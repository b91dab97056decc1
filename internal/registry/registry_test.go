package registry

import (
	"strings"
	"testing"
)

func TestLoadSimpleNameOnly(t *testing.T) {
	tsv := "Infobox person\t10\n" +
		"Infobox person bio\t10\n"
	reg, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	id, ok := reg.LookupByName("Infobox person bio")
	if !ok || id != 10 {
		t.Fatalf("LookupByName alt name = %d, ok=%v", id, ok)
	}
	entry, ok := reg.Lookup(10)
	if !ok || entry.CanonicalName != "Infobox person" {
		t.Fatalf("canonical name = %q", entry.CanonicalName)
	}
}

func TestLoadWithParamSchema(t *testing.T) {
	tsv := "Cite web\t20\turl|URL\tR\tN\tdate|Date|access-date\tO\tY\n"
	reg, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := reg.Lookup(20)
	if !ok {
		t.Fatal("template 20 not found")
	}
	if canonical, ok := entry.ResolveAlias("URL"); !ok || canonical != "url" {
		t.Fatalf("ResolveAlias(URL) = %q, ok=%v", canonical, ok)
	}
	schema := entry.Params["url"]
	if schema == nil || schema.Validity != Required || schema.Validation != ValidationNone {
		t.Fatalf("url schema = %+v", schema)
	}
	dateSchema := entry.Params["date"]
	if dateSchema == nil || dateSchema.Validity != Optional || dateSchema.Validation != ValidationBool {
		t.Fatalf("date schema = %+v", dateSchema)
	}
	if !dateSchema.Validate("yes") || dateSchema.Validate("maybe") {
		t.Fatal("bool validation incorrect")
	}
	if canonical, ok := entry.ResolveAlias("access-date"); !ok || canonical != "date" {
		t.Fatalf("ResolveAlias(access-date) = %q, ok=%v", canonical, ok)
	}
}

func TestLoadRegexValidation(t *testing.T) {
	tsv := "Birth date\t30\t1\tR\tR\t[0-9]{4}\n"
	reg, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, _ := reg.Lookup(30)
	schema := entry.Params["1"]
	if schema == nil || schema.Regex == nil {
		t.Fatal("expected a compiled validation regex")
	}
	if !schema.Validate("1984") || schema.Validate("84") {
		t.Fatal("regex validation incorrect")
	}
}

func TestLoadEnumValidation(t *testing.T) {
	tsv := "Infobox\t40\tsex\tO\tV\tmale|female|unknown\n"
	reg, err := Load(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, _ := reg.Lookup(40)
	schema := entry.Params["sex"]
	if !schema.Validate("male") || schema.Validate("alien") {
		t.Fatal("enum validation incorrect")
	}
}

func TestRecordOccurrenceCardinalityCap(t *testing.T) {
	entry := newEntry(1, "Foo")
	for i := 0; i < maxDistinctValues; i++ {
		if rejected := entry.RecordOccurrence("x", string(rune('a'+i))); rejected {
			t.Fatalf("value %d unexpectedly rejected", i)
		}
	}
	if !entry.AtCardinalityCap("x") {
		t.Fatal("expected cap reached")
	}
	if rejected := entry.RecordOccurrence("x", "brand-new"); !rejected {
		t.Fatal("expected new value beyond cap to be rejected")
	}
	if rejected := entry.RecordOccurrence("x", "a"); rejected {
		t.Fatal("re-seeing an already-counted value should not be rejected")
	}
	if entry.ParamOccurrence["x"] != maxDistinctValues+2 {
		t.Fatalf("occurrence count = %d", entry.ParamOccurrence["x"])
	}
}

func TestRecordValidationErrorCap(t *testing.T) {
	entry := newEntry(1, "Foo")
	for i := 0; i < maxValidationErrors; i++ {
		if !entry.RecordValidationError() {
			t.Fatalf("error %d unexpectedly not counted", i)
		}
	}
	if entry.RecordValidationError() {
		t.Fatal("expected error beyond cap to not be counted")
	}
	if entry.ValidationErrorCount != maxValidationErrors {
		t.Fatalf("ValidationErrorCount = %d", entry.ValidationErrorCount)
	}
}
