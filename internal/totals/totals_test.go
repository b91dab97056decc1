package totals

import (
	"strings"
	"testing"

	"github.com/bamyers99/mwtemplateparser/internal/registry"
)

func TestWriteOrdersByIDAndKey(t *testing.T) {
	reg, err := registry.Load(strings.NewReader("Cite web\t5\nInfobox\t2\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	e5, _ := reg.Lookup(5)
	e5.PageCount, e5.InstanceCount = 3, 4
	e5.RecordOccurrence("url", "http://a")
	e5.RecordOccurrence("url", "http://b")
	e5.RecordOccurrence("url", "http://a")

	e2, _ := reg.Lookup(2)
	e2.PageCount, e2.InstanceCount = 1, 1

	var buf strings.Builder
	if err := Write(&buf, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if lines[0] != "T2\t1\t1\tInfobox" {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[1] != "T5\t3\t4\tCite web" {
		t.Fatalf("second line = %q", lines[1])
	}
	if lines[2] != "Purl\t3\thttp://a\t2\thttp://b\t1" {
		t.Fatalf("third line = %q", lines[2])
	}
}

func TestWriteSkipsUnseenTemplates(t *testing.T) {
	reg, err := registry.Load(strings.NewReader("Cite web\t5\nInfobox\t2\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e2, _ := reg.Lookup(2)
	e2.PageCount, e2.InstanceCount = 1, 1

	var buf strings.Builder
	if err := Write(&buf, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "T5") {
		t.Fatalf("template with zero pagecount emitted: %q", out)
	}
}

func TestWriteOmitsValuesAtCardinalityCap(t *testing.T) {
	reg, err := registry.Load(strings.NewReader("Infobox\t1\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, _ := reg.Lookup(1)
	entry.PageCount, entry.InstanceCount = 1, 50
	for i := 0; i < 50; i++ {
		entry.RecordOccurrence("x", string(rune('a'+i)))
	}

	var buf strings.Builder
	if err := Write(&buf, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[1] != "Px\t50" {
		t.Fatalf("param line at cap = %q", lines[1])
	}
}
