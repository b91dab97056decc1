// Package excludepolicy implements the per-project template exclude list:
// a sectioned TSV (loaded via internal/sectionfile) naming, per project,
// the template ids that should be dropped from that project's output
// even though they matched the registry.
package excludepolicy

import (
	"io"

	"github.com/bamyers99/mwtemplateparser/internal/sectionfile"
)

// defaultSection is the project name used for ids that apply to every
// project, written as a section header of "*" in ExcludeTemplates.tsv.
const defaultSection = "*"

// Policy answers exclude-list decisions for a loaded TSV.
type Policy struct {
	byProject map[string]map[int]struct{}
}

// Load parses an ExcludeTemplates.tsv-shaped sectioned file.
func Load(r io.Reader) (*Policy, error) {
	sections, err := sectionfile.Load(r)
	if err != nil {
		return nil, err
	}
	return &Policy{byProject: sections}, nil
}

// Decision reports whether templateID is excluded for project, honoring
// both the project-specific section and the "*" catch-all section.
func (p *Policy) Decision(templateID int, project string) bool {
	if p == nil {
		return false
	}
	if ids, ok := p.byProject[project]; ok {
		if _, excluded := ids[templateID]; excluded {
			return true
		}
	}
	if ids, ok := p.byProject[defaultSection]; ok {
		if _, excluded := ids[templateID]; excluded {
			return true
		}
	}
	return false
}
