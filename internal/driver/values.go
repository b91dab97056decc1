package driver

import (
	"bufio"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bamyers99/mwtemplateparser/internal/invocation"
	"github.com/bamyers99/mwtemplateparser/internal/logging"
	"github.com/bamyers99/mwtemplateparser/internal/ordmap"
	"github.com/bamyers99/mwtemplateparser/internal/pageproc"
	"github.com/bamyers99/mwtemplateparser/internal/wikixml"
)

// ValuesConfig drives the -values mode: a per-page dump of every
// parameter value for one chosen template and its name aliases.
type ValuesConfig struct {
	InputPath    string // XML dump, or "-" for stdin
	OutputPrefix string // output path prefix, or "-" for stdout
	NameSpec     string // "<tmplname>[;<alias>]*"
	Verbose      bool
}

// valuesCollector accumulates one row per (page, occurrence) of the
// target template, plus the union of parameter keys in first-seen
// order. Rows are keyed internally by pagename plus an occurrence
// suffix "{n}" so repeated invocations on one page stay distinct; the
// suffix is stripped again at write time.
type valuesCollector struct {
	target  string          // output template name (first name given)
	names   map[string]bool // every normalised name variant to match
	keys    *ordmap.Map     // key union, first-seen order (values unused)
	rowKeys []string
	rows    map[string]*ordmap.Map
}

func newValuesCollector(nameSpec string) *valuesCollector {
	c := &valuesCollector{
		names: make(map[string]bool),
		keys:  ordmap.New(),
		rows:  make(map[string]*ordmap.Map),
	}
	for i, name := range strings.Split(nameSpec, ";") {
		normalised := invocation.NormalizeName(name)
		if normalised == "" {
			continue
		}
		if i == 0 {
			c.target = normalised
		}
		c.names[normalised] = true
	}
	return c
}

// collectPage records every invocation of the target template on one
// page.
func (c *valuesCollector) collectPage(title string, templates []string, markers map[string]string) {
	occurrence := 0
	for _, raw := range templates {
		inv := invocation.Parse(raw, markers)
		if !c.names[inv.Name] {
			continue
		}
		occurrence++
		rowKey := fmt.Sprintf("%s{%d}", title, occurrence)

		row := ordmap.New()
		inv.Params.Each(func(key, value string) {
			key = cleanField(key)
			c.keys.Set(key, "")
			row.Set(key, cleanField(value))
		})

		if _, dup := c.rows[rowKey]; !dup {
			c.rowKeys = append(c.rowKeys, rowKey)
		}
		c.rows[rowKey] = row
	}
}

// write emits the header then one line per collected row, with the
// internal occurrence suffix stripped from the page name.
func (c *valuesCollector) write(w *bufio.Writer) error {
	w.WriteString("pagename\ttemplatename")
	for _, key := range c.keys.Keys() {
		w.WriteByte('\t')
		w.WriteString(key)
	}
	w.WriteByte('\n')

	for _, rowKey := range c.rowKeys {
		row := c.rows[rowKey]
		w.WriteString(stripOccurrenceSuffix(rowKey))
		w.WriteByte('\t')
		w.WriteString(c.target)
		for _, key := range c.keys.Keys() {
			value, _ := row.Get(key)
			w.WriteByte('\t')
			w.WriteString(value)
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// stripOccurrenceSuffix removes a trailing "{n}" disambiguator.
func stripOccurrenceSuffix(rowKey string) string {
	if !strings.HasSuffix(rowKey, "}") {
		return rowKey
	}
	open := strings.LastIndexByte(rowKey, '{')
	if open < 0 {
		return rowKey
	}
	return rowKey[:open]
}

// cleanField keeps the tab/newline bytes that structure the dump out of
// its fields.
func cleanField(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
}

// valuesOutputPath derives the dump path from the prefix and the target
// template name; a "-" prefix selects stdout.
func valuesOutputPath(prefix, target string) string {
	if prefix == "-" {
		return "-"
	}
	return prefix + strings.ReplaceAll(target, " ", "_") + ".tsv"
}

// RunValues streams the dump once and writes the per-page value table
// for the configured template names.
func RunValues(cfg ValuesConfig) int {
	logger := logging.New(cfg.Verbose)
	defer logger.Sync()

	collector := newValuesCollector(cfg.NameSpec)
	if collector.target == "" {
		logger.Error("no usable template name given", zap.String("spec", cfg.NameSpec))
		return ExitUsageError
	}

	in, err := openInput(cfg.InputPath)
	if err != nil {
		logger.Error("failed to open input dump", zap.Error(err))
		return ExitInputOpenError
	}
	defer in.Close()

	source := wikixml.NewSource(true)
	source.Start(in)

	pagesProcessed := 0
	for page := range source.Pages {
		if page.IsRedirect {
			continue
		}
		templates, markers := pageproc.ExtractTemplates(page.Body)
		collector.collectPage(page.Title, templates, markers)

		pagesProcessed++
		if cfg.Verbose {
			logging.Progress(logger, pagesProcessed)
		}
	}

	for err := range source.Errors {
		logger.Error("xml decode failed", zap.Error(err))
		return ExitXMLDecodeError
	}

	out, err := openOutput(valuesOutputPath(cfg.OutputPrefix, collector.target))
	if err != nil {
		logger.Error("failed to open values output", zap.Error(err))
		return ExitOutputWriteError
	}
	defer out.Close()

	if err := collector.write(bufio.NewWriter(out)); err != nil {
		logger.Error("failed to write values dump", zap.Error(err))
		return ExitOutputWriteError
	}
	return ExitSuccess
}
