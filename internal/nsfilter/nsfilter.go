// Package nsfilter implements the per-project namespace filter: a
// sectioned TSV naming, per project, the namespace ids whose pages
// should be processed. A project with no section processes every
// namespace.
package nsfilter

import (
	"io"

	"github.com/bamyers99/mwtemplateparser/internal/sectionfile"
)

// Filter answers namespace-inclusion decisions for a loaded TSV.
type Filter struct {
	byProject map[string]map[int]struct{}
}

// Load parses a Namespaces.tsv-shaped sectioned file.
func Load(r io.Reader) (*Filter, error) {
	sections, err := sectionfile.Load(r)
	if err != nil {
		return nil, err
	}
	return &Filter{byProject: sections}, nil
}

// Allowed reports whether namespace ns should be processed for project.
// A project with no declared namespace set allows every namespace.
func (f *Filter) Allowed(project string, ns int) bool {
	if f == nil {
		return true
	}
	ids, ok := f.byProject[project]
	if !ok {
		return true
	}
	_, allowed := ids[ns]
	return allowed
}
