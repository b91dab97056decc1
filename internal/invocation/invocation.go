// Package invocation turns one extracted template string into a
// normalised (name, ordered params) pair: marker expansion, MediaWiki-
// style first-character case folding, and positional/named parameter
// assignment with alias-free raw keys (aliasing is the registry/page
// processor's job, not this package's).
package invocation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bamyers99/mwtemplateparser/internal/extractor"
	"github.com/bamyers99/mwtemplateparser/internal/ordmap"
	"github.com/bamyers99/mwtemplateparser/internal/strutil"
)

// Invocation is one normalised template call: its canonical-cased name
// and its ordered parameter map (numeric keys "1","2",... for positional
// parameters, insertion-ordered, last assignment wins on duplicate keys).
type Invocation struct {
	Name   string
	Params *ordmap.Map
}

// Parse normalises one template string produced by the extractor,
// expanding any markers it still carries against the page's marker
// dictionary.
func Parse(templateString string, markers map[string]string) Invocation {
	match, ok := extractor.TemplateRegex.Match(templateString, 0)
	if !ok {
		// Shouldn't happen for a string the extractor itself produced,
		// but degrade to an empty invocation rather than panic.
		return Invocation{Name: "", Params: ordmap.New()}
	}

	nameItem, _ := match.Named("name")
	name := normaliseName(extractor.ExpandMarkers(nameItem.Text, markers))

	params := ordmap.New()
	paramsItem, err := match.Named("params")
	if err != nil || paramsItem.Offset < 0 {
		return Invocation{Name: name, Params: params}
	}

	pieces := strutil.Split(paramsItem.Text, "|", -1)
	positional := 1

	for _, piece := range pieces {
		var key, value string

		eq := strings.IndexByte(piece, '=')
		if eq >= 0 {
			k := piece[:eq]
			v := piece[eq+1:]
			if len(k) > 0 && k[len(k)-1] == '\n' {
				// The '=' isn't on the same line as the key: treat the
				// whole piece as a positional value instead.
				key = strconv.Itoa(positional)
				value = piece
				positional++
			} else {
				key = extractor.ExpandMarkers(k, markers)
				value = v
			}
		} else {
			key = strconv.Itoa(positional)
			value = piece
			positional++
		}

		value = extractor.ExpandMarkers(value, markers)
		key = strutil.Trim(key)
		value = strutil.Trim(value)

		if key != "" {
			params.Set(key, value)
		}
	}

	return Invocation{Name: name, Params: params}
}

// NormalizeName applies the same name folding Parse applies, for
// callers that match externally supplied template names against parsed
// invocation names.
func NormalizeName(raw string) string {
	return normaliseName(raw)
}

// normaliseName applies MediaWiki-equivalent case/underscore folding:
// underscores become spaces, the result is trimmed, its first character
// is upper-cased, and a leading "Template:" namespace prefix is stripped
// (with the remainder re-normalised the same way). Folding touches only
// the first character — the rest of the name is left as written.
func normaliseName(raw string) string {
	name := strutil.Replace(raw, "_", " ", -1)
	name = strutil.Trim(name)
	name = upperFirst(name)

	const prefix = "Template:"
	if strings.HasPrefix(name, prefix) {
		name = strutil.Trim(name[len(prefix):])
		name = upperFirst(name)
	}

	return name
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(s[:size]) + s[size:]
}
