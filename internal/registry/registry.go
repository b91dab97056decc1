// Package registry loads the template schema TSV and maintains, per
// template id, the running page/instance counters, per-parameter
// occurrence counts and bounded-cardinality value distributions the page
// processor and totals writer read from. Schema tables are loaded at
// process start into value-typed structures owned by a *Registry
// instance, not package-level globals.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bamyers99/mwtemplateparser/internal/pcre"
)

// Validity classifies how required a parameter is.
type Validity byte

const (
	Required   Validity = 'R'
	Suggested  Validity = 'S'
	Deprecated Validity = 'D'
	Optional   Validity = 'O'
)

// ValidationClass selects how a parameter's value is checked.
type ValidationClass byte

const (
	ValidationNone  ValidationClass = 'N'
	ValidationBool  ValidationClass = 'Y'
	ValidationRegex ValidationClass = 'R'
	ValidationEnum  ValidationClass = 'V'
)

// boolValues is the accepted, lower-cased yes/no vocabulary for the Y
// validation class.
var boolValues = map[string]bool{
	"yes": true, "y": true, "true": true, "1": true,
	"no": true, "n": true, "false": true, "0": true,
}

const maxDistinctValues = 50
const maxValidationErrors = 10000

// ParamSchema is one parameter's declared schema: its aliases and the
// rules the page processor applies to its value.
type ParamSchema struct {
	Canonical  string
	Aliases    []string
	Validity   Validity
	Validation ValidationClass
	Regex      *pcre.Regexp    // set when Validation == ValidationRegex
	Enum       map[string]bool // set when Validation == ValidationEnum
}

// Validate reports whether value satisfies this parameter's validation
// class. ValidationNone always passes.
func (p *ParamSchema) Validate(value string) bool {
	switch p.Validation {
	case ValidationNone:
		return true
	case ValidationBool:
		return boolValues[strings.ToLower(value)]
	case ValidationRegex:
		if p.Regex == nil {
			return true
		}
		_, ok := p.Regex.Match(value, 0)
		return ok
	case ValidationEnum:
		return p.Enum[value]
	}
	return true
}

// Entry is one template id's schema plus its running counters.
type Entry struct {
	ID            int
	CanonicalName string
	hasSchema     bool

	Params     map[string]*ParamSchema // canonical key -> schema
	aliasToKey map[string]string       // alias (or canonical) -> canonical key

	PageCount            int
	InstanceCount        int
	ParamOccurrence      map[string]int
	ParamValueCount      map[string]map[string]int
	ValidationErrorCount int
}

func newEntry(id int, name string) *Entry {
	return &Entry{
		ID:              id,
		CanonicalName:   name,
		Params:          make(map[string]*ParamSchema),
		aliasToKey:      make(map[string]string),
		ParamOccurrence: make(map[string]int),
		ParamValueCount: make(map[string]map[string]int),
	}
}

// ResolveAlias maps a raw parameter key to its canonical key. Unknown
// keys are returned unchanged with ok = false.
func (e *Entry) ResolveAlias(key string) (canonical string, ok bool) {
	k, ok := e.aliasToKey[key]
	return k, ok
}

// HasSchema reports whether any loaded row declared a parameter schema
// for this template. Templates known only by (name, id) rows have no
// schema, so no key of theirs can be "unknown".
func (e *Entry) HasSchema() bool {
	return e.hasSchema
}

// RecordOccurrence increments the occurrence count for a canonical key
// and records this value in the key's distinct-value distribution. Once
// the distribution holds maxDistinctValues distinct values it is frozen:
// counts for values already in it keep accumulating, new values are
// dropped. Returns true when value is a new one that did not fit.
func (e *Entry) RecordOccurrence(key, value string) (rejected bool) {
	e.ParamOccurrence[key]++
	values, ok := e.ParamValueCount[key]
	if !ok {
		values = make(map[string]int)
		e.ParamValueCount[key] = values
	}
	if _, seen := values[value]; !seen && len(values) >= maxDistinctValues {
		return true
	}
	values[value]++
	return false
}

// AtCardinalityCap reports whether key's distinct-value set has reached
// the 50-value cap (used by the totals writer to decide whether to emit
// per-value counts for this key).
func (e *Entry) AtCardinalityCap(key string) bool {
	return len(e.ParamValueCount[key]) >= maxDistinctValues
}

// RecordValidationError increments the per-template validation-error
// count, capped at maxValidationErrors, and reports whether this
// occurrence was counted (false once the cap has been reached).
func (e *Entry) RecordValidationError() bool {
	if e.ValidationErrorCount >= maxValidationErrors {
		return false
	}
	e.ValidationErrorCount++
	return true
}

// Registry is the loaded template schema table plus live counters,
// keyed by the stable external template id.
type Registry struct {
	byID   map[int]*Entry
	byName map[string]int
}

// New returns an empty registry; Load starts from one before reading
// the schema rows.
func New() *Registry {
	return &Registry{byID: make(map[int]*Entry), byName: make(map[string]int)}
}

// Lookup finds a template entry by its stable id.
func (r *Registry) Lookup(id int) (*Entry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// LookupByName finds a template id by one of its declared name variants.
func (r *Registry) LookupByName(name string) (int, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Entries returns every loaded template entry, for the totals writer.
func (r *Registry) Entries() map[int]*Entry {
	return r.byID
}

// Load parses TemplateIds.tsv: name<TAB>id[<TAB>alias-group<TAB>validity
// <TAB>validation[<TAB>arg]]*, one row per name/id pairing or full schema.
// Multiple rows may share an id; the canonical name is the one whose row
// carries a parameter schema, or the first name seen otherwise.
func Load(r io.Reader) (*Registry, error) {
	reg := New()

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 2 {
			continue
		}

		name := record[0]
		id, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("registry: bad template id %q: %w", record[1], err)
		}

		entry, ok := reg.byID[id]
		if !ok {
			entry = newEntry(id, name)
			reg.byID[id] = entry
		}
		reg.byName[name] = id

		rest := record[2:]
		if len(rest) == 0 {
			continue
		}

		if !entry.hasSchema {
			entry.CanonicalName = name
			entry.hasSchema = true
		}

		if err := parseParamGroups(entry, rest); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func parseParamGroups(entry *Entry, rest []string) error {
	i := 0
	for i < len(rest) {
		if i+3 > len(rest) {
			return fmt.Errorf("registry: truncated param group for template %d", entry.ID)
		}
		aliasGroup := rest[i]
		validity := Validity(strings.ToUpper(rest[i+1])[0])
		validation := ValidationClass(strings.ToUpper(rest[i+2])[0])
		i += 3

		names := strings.Split(aliasGroup, "|")
		if len(names) == 0 || names[0] == "" {
			return fmt.Errorf("registry: empty alias group for template %d", entry.ID)
		}
		canonical := names[0]
		aliases := names[1:]

		schema := &ParamSchema{
			Canonical:  canonical,
			Aliases:    aliases,
			Validity:   validity,
			Validation: validation,
		}

		switch validation {
		case ValidationRegex:
			if i >= len(rest) {
				return fmt.Errorf("registry: missing regex arg for template %d param %s", entry.ID, canonical)
			}
			re, err := pcre.Compile("!^" + rest[i] + "$!u")
			if err != nil {
				return fmt.Errorf("registry: bad validation regex for template %d param %s: %w", entry.ID, canonical, err)
			}
			schema.Regex = re
			i++
		case ValidationEnum:
			if i >= len(rest) {
				return fmt.Errorf("registry: missing enum arg for template %d param %s", entry.ID, canonical)
			}
			schema.Enum = make(map[string]bool)
			for _, v := range strings.Split(rest[i], "|") {
				schema.Enum[v] = true
			}
			i++
		}

		entry.Params[canonical] = schema
		entry.aliasToKey[canonical] = canonical
		for _, alias := range aliases {
			entry.aliasToKey[alias] = canonical
		}
	}
	return nil
}
