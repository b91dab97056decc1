// Package totals writes the end-of-run summary: a "T" line per template
// that appeared on at least one page giving its page and instance
// counts, followed by one "P" line per parameter key giving its
// occurrence count and, for keys still under the cardinality cap, the
// distinct values seen with their counts.
package totals

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/bamyers99/mwtemplateparser/internal/registry"
)

// Write emits one summary block per template with a non-zero page
// count, ordered by ascending template id, keys sorted within each
// block, for deterministic output.
func Write(w io.Writer, reg *registry.Registry) error {
	bw := bufio.NewWriter(w)

	ids := make([]int, 0, len(reg.Entries()))
	for id := range reg.Entries() {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		entry := reg.Entries()[id]
		if entry.PageCount == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "T%d\t%d\t%d\t%s\n",
			entry.ID, entry.PageCount, entry.InstanceCount, entry.CanonicalName); err != nil {
			return err
		}

		keys := make([]string, 0, len(entry.ParamOccurrence))
		for key := range entry.ParamOccurrence {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if err := writeParamLine(bw, entry, key); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func writeParamLine(bw *bufio.Writer, entry *registry.Entry, key string) error {
	if _, err := fmt.Fprintf(bw, "P%s\t%d", key, entry.ParamOccurrence[key]); err != nil {
		return err
	}

	if !entry.AtCardinalityCap(key) {
		values := entry.ParamValueCount[key]
		sortedVals := make([]string, 0, len(values))
		for v := range values {
			sortedVals = append(sortedVals, v)
		}
		sort.Strings(sortedVals)
		for _, v := range sortedVals {
			if _, err := fmt.Fprintf(bw, "\t%s\t%d", v, values[v]); err != nil {
				return err
			}
		}
	}

	_, err := bw.WriteString("\n")
	return err
}
