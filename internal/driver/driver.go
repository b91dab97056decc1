// Package driver wires the extractor, invocation parser, template
// registry, page processor, XML source and totals writer into the
// three CLI operating modes, and maps every failure into the process's
// exit-code taxonomy.
package driver

import (
	"bufio"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/bamyers99/mwtemplateparser/internal/excludepolicy"
	"github.com/bamyers99/mwtemplateparser/internal/logging"
	"github.com/bamyers99/mwtemplateparser/internal/nsfilter"
	"github.com/bamyers99/mwtemplateparser/internal/pageproc"
	"github.com/bamyers99/mwtemplateparser/internal/registry"
	"github.com/bamyers99/mwtemplateparser/internal/totals"
	"github.com/bamyers99/mwtemplateparser/internal/wikixml"
)

// Exit codes. 2-7 distinguish the failure classes a multi-hour dump
// run can hit partway through.
const (
	ExitSuccess           = 0
	ExitUsageError        = 1
	ExitInputOpenError    = 2
	ExitSchemaLoadError   = 3
	ExitPolicyLoadError   = 4
	ExitXMLDecodeError    = 5
	ExitOutputWriteError  = 6
	ExitExtractionAborted = 7
)

// Config is everything the default extract mode needs, already resolved
// from flags.
type Config struct {
	InputPath     string // XML dump, or "-" for stdin
	RecordsPath   string // invocation records stream, or "-" for stdout
	TotalsPath    string // totals summary, or "-" for stdout
	SchemaPath    string
	ExcludePath   string // optional; missing file disables the policy
	NamespacePath string // optional; missing file disables the filter
	Verbose       bool
}

// openInput resolves "-" to stdin. The returned closer is a no-op for
// stdin so callers can defer Close uniformly.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openOutput resolves "-" to stdout, which is never closed.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// Run executes one full dump pass in the default mode — one record line
// per emitted invocation plus the end-of-run totals — and returns a
// process exit code.
func Run(cfg Config) int {
	logger := logging.New(cfg.Verbose)
	defer logger.Sync()

	reg, err := loadSchema(cfg.SchemaPath)
	if err != nil {
		logger.Error("failed to load template schema", zap.Error(err))
		return ExitSchemaLoadError
	}

	exclude, nsf, err := loadPolicies(cfg.ExcludePath, cfg.NamespacePath)
	if err != nil {
		logger.Error("failed to load exclude/namespace policy", zap.Error(err))
		return ExitPolicyLoadError
	}

	in, err := openInput(cfg.InputPath)
	if err != nil {
		logger.Error("failed to open input dump", zap.Error(err))
		return ExitInputOpenError
	}
	defer in.Close()

	recordsFile, err := openOutput(cfg.RecordsPath)
	if err != nil {
		logger.Error("failed to open records output", zap.Error(err))
		return ExitOutputWriteError
	}
	defer recordsFile.Close()
	records := bufio.NewWriter(recordsFile)

	project := deriveProjectName(cfg.TotalsPath)
	proc := &pageproc.Processor{Registry: reg, Exclude: policyOrNil(exclude), Project: project}

	source := wikixml.NewSource(true)
	source.Start(in)

	pagesProcessed := 0
	for page := range source.Pages {
		if page.IsRedirect || !nsf.Allowed(project, page.Namespace) {
			continue
		}

		templates, markers := pageproc.ExtractTemplates(page.Body)
		for _, rec := range proc.ProcessPage(page.PageID, templates, markers) {
			records.WriteString(rec.Line())
			records.WriteByte('\n')
		}

		pagesProcessed++
		if cfg.Verbose {
			logging.Progress(logger, pagesProcessed)
		}
	}

	for err := range source.Errors {
		logger.Error("xml decode failed", zap.Error(err))
		return ExitXMLDecodeError
	}

	if err := records.Flush(); err != nil {
		logger.Error("failed to write records", zap.Error(err))
		return ExitOutputWriteError
	}

	totalsFile, err := openOutput(cfg.TotalsPath)
	if err != nil {
		logger.Error("failed to open totals output", zap.Error(err))
		return ExitOutputWriteError
	}
	defer totalsFile.Close()

	if err := totals.Write(totalsFile, reg); err != nil {
		logger.Error("failed to write totals", zap.Error(err))
		return ExitOutputWriteError
	}

	logger.Info("dump processed", zap.Int("pages", pagesProcessed))
	return ExitSuccess
}

// policyOrNil keeps a typed-nil *Policy from reaching the processor's
// interface field as a non-nil interface value.
func policyOrNil(p *excludepolicy.Policy) pageproc.ExcludePolicy {
	if p == nil {
		return nil
	}
	return p
}

func loadSchema(path string) (*registry.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return registry.Load(f)
}

// loadPolicies loads the exclude and namespace tables. Both files are
// optional: an empty path or a path with no file behind it disables
// that policy rather than failing the run.
func loadPolicies(excludePath, nsPath string) (*excludepolicy.Policy, *nsfilter.Filter, error) {
	var exclude *excludepolicy.Policy
	var nsf *nsfilter.Filter

	if excludePath != "" {
		f, err := os.Open(excludePath)
		if err == nil {
			defer f.Close()
			exclude, err = excludepolicy.Load(f)
			if err != nil {
				return nil, nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, nil, err
		}
	}

	if nsPath != "" {
		f, err := os.Open(nsPath)
		if err == nil {
			defer f.Close()
			nsf, err = nsfilter.Load(f)
			if err != nil {
				return nil, nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, nil, err
		}
	}

	return exclude, nsf, nil
}

// deriveProjectName extracts the project name from the totals output
// path: the leading filename component up to the literal
// "TemplateTotals" substring, falling back to "enwiki" when that marker
// isn't present.
func deriveProjectName(totalsPath string) string {
	base := totalsPath
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.Index(base, "TemplateTotals"); idx > 0 {
		return base[:idx]
	}
	return "enwiki"
}
