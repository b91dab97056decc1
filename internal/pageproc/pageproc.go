// Package pageproc applies the template registry to one page's extracted
// invocations: alias resolution, exclude-list suppression and its
// anomaly overrides, value cleaning and validation, and the page-local
// bookkeeping that keeps per-template page counts exactly-once
// regardless of how many times a template is invoked on the same page.
package pageproc

import (
	"strconv"
	"strings"

	"github.com/bamyers99/mwtemplateparser/internal/extractor"
	"github.com/bamyers99/mwtemplateparser/internal/invocation"
	"github.com/bamyers99/mwtemplateparser/internal/ordmap"
	"github.com/bamyers99/mwtemplateparser/internal/registry"
)

// maxFieldBytes is the emitted key/value truncation limit.
const maxFieldBytes = 255

// ExcludePolicy answers, for one template id, whether this page's
// project suppresses that template's record output by default.
type ExcludePolicy interface {
	Decision(templateID int, project string) (excluded bool)
}

// Processor walks the templates extracted from one page against the
// registry, updating its counters and returning the record lines the
// caller writes out.
type Processor struct {
	Registry *registry.Registry
	Exclude  ExcludePolicy // nil disables exclude-list suppression
	Project  string
}

// Record is one emitted invocation: the fields of one output line.
type Record struct {
	TemplateID int
	PageID     int
	Params     []Param
}

// Param is one cleaned (key, value) pair, in first-occurrence order.
type Param struct {
	Key   string
	Value string
}

// Line renders the record as its output form:
// id<TAB>page_id followed by <TAB>key<TAB>value per parameter.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.TemplateID))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.PageID))
	for _, p := range r.Params {
		b.WriteByte('\t')
		b.WriteString(p.Key)
		b.WriteByte('\t')
		b.WriteString(p.Value)
	}
	return b.String()
}

// ProcessPage runs every template string extracted from a page through
// the registry, in extraction order, and returns the records to emit.
// Counters update for every recognised invocation whether or not its
// record survives the exclude-list policy; a template's page count
// increments at most once per page.
func (p *Processor) ProcessPage(pageID int, templates []string, markers map[string]string) []Record {
	seenThisPage := make(map[int]bool)
	var records []Record

	for _, raw := range templates {
		inv := invocation.Parse(raw, markers)
		if inv.Name == "" {
			continue
		}

		id, ok := p.Registry.LookupByName(inv.Name)
		if !ok {
			continue
		}
		entry, _ := p.Registry.Lookup(id)

		params, unknownKey := resolveParams(entry, inv.Params)
		if params.Len() == 0 {
			continue
		}

		entry.InstanceCount++
		if !seenThisPage[id] {
			entry.PageCount++
			seenThisPage[id] = true
		}

		deprecatedPresent, requiredMissing := schemaAnomalies(entry, params)

		validationError := false
		params.Each(func(key, value string) {
			schema := entry.Params[key]
			if schema == nil || schema.Validation == registry.ValidationNone {
				return
			}
			if !schema.Validate(value) && entry.RecordValidationError() {
				validationError = true
			}
		})

		excluded := p.excluded(id)
		emit := !excluded || unknownKey || deprecatedPresent || requiredMissing || validationError

		var fields []Param
		params.Each(func(key, value string) {
			key = clean(key)
			value = clean(value)
			entry.RecordOccurrence(key, value)
			if !emit {
				return
			}
			switch {
			case excluded:
				// Excluded templates only ever reach the output because
				// of a schema anomaly or validation error; their values
				// are withheld.
				value = ""
			case entry.AtCardinalityCap(key) && !validationError:
				value = ""
			}
			fields = append(fields, Param{Key: key, Value: value})
		})

		if !emit {
			continue
		}
		records = append(records, Record{TemplateID: id, PageID: pageID, Params: fields})
	}

	return records
}

// resolveParams drops empty-valued parameters and rewrites the survivors
// through the entry's alias map into a fresh ordered map (last write
// wins when an alias collides with its canonical key). unknownKey
// reports whether any surviving key is absent from the schema, for
// templates that declare one.
func resolveParams(entry *registry.Entry, raw *ordmap.Map) (*ordmap.Map, bool) {
	params := ordmap.New()
	unknownKey := false
	raw.Each(func(key, value string) {
		if value == "" {
			return
		}
		if canonical, ok := entry.ResolveAlias(key); ok {
			key = canonical
		} else if entry.HasSchema() {
			unknownKey = true
		}
		params.Set(key, value)
	})
	return params, unknownKey
}

// schemaAnomalies scans the declared schema against the resolved
// parameter set: a present deprecated key or an absent required key each
// override exclude-list suppression. Suggested keys do not.
func schemaAnomalies(entry *registry.Entry, params *ordmap.Map) (deprecatedPresent, requiredMissing bool) {
	for key, schema := range entry.Params {
		_, present := params.Get(key)
		if present && schema.Validity == registry.Deprecated {
			deprecatedPresent = true
		}
		if !present && schema.Validity == registry.Required {
			requiredMissing = true
		}
	}
	return deprecatedPresent, requiredMissing
}

// excluded reports whether id's records are suppressed by default for
// this page's project, per the registered exclude-list policy.
func (p *Processor) excluded(id int) bool {
	if p.Exclude == nil {
		return false
	}
	return p.Exclude.Decision(id, p.Project)
}

// clean replaces the tab/newline bytes that would corrupt the TSV output
// format with spaces and truncates to the emitted-field byte cap.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
	if len(s) > maxFieldBytes {
		s = truncateUTF8(s, maxFieldBytes)
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a multi-byte
// rune in half.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && isUTF8Continuation(s[n]) {
		n--
	}
	return s[:n]
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}

// ExtractTemplates is a convenience wrapper pairing the extractor's
// output directly with ProcessPage's input shape.
func ExtractTemplates(body string) (templates []string, markers map[string]string) {
	result := extractor.Extract(body)
	return result.Templates, result.Markers
}
