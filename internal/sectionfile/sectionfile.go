// Package sectionfile reads the sectioned-TSV format shared by
// ExcludeTemplates.tsv and Namespaces.tsv: a header line whose first
// character is not a digit names a project; the digit-leading lines that
// follow are integer ids belonging to that project's set.
package sectionfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Load parses r into project name -> set of ids.
func Load(r io.Reader) (map[string]map[int]struct{}, error) {
	sections := make(map[string]map[int]struct{})
	var current string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if line[0] < '0' || line[0] > '9' {
			current = line
			if _, ok := sections[current]; !ok {
				sections[current] = make(map[int]struct{})
			}
			continue
		}
		if current == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		sections[current][id] = struct{}{}
	}
	return sections, scanner.Err()
}
