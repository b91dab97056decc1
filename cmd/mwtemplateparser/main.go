// Command mwtemplateparser extracts template invocations from a
// MediaWiki XML export. The default mode writes one record line per
// emitted invocation plus an end-of-run per-template totals summary;
// -offsets indexes a previously sorted records stream, and -values
// dumps every parameter value of one chosen template per page.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bamyers99/mwtemplateparser/internal/driver"
	"github.com/bamyers99/mwtemplateparser/internal/selftest"
)

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `usage: mwtemplateparser [-v] [-t] <in|-> <out|-> <totals|->
       mwtemplateparser -offsets <sorted-in|-> <out|->
       mwtemplateparser -values [-v] <in|-> <out-prefix|-> "<tmplname>[;<alias>]*"`)
	fs.PrintDefaults()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mwtemplateparser", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "emit a progress marker every 100000 pages")
	test := fs.Bool("t", false, "run the self-test suite and exit")
	offsets := fs.Bool("offsets", false, "index a sorted records stream instead of parsing a dump")
	values := fs.Bool("values", false, "dump per-page parameter values for one template")
	schema := fs.String("schema", "TemplateIds.tsv", "template schema TSV")
	exclude := fs.String("exclude", "ExcludeTemplates.tsv", "per-project exclude-list TSV (skipped when absent)")
	namespaces := fs.String("namespaces", "Namespaces.tsv", "per-project namespace filter TSV (skipped when absent)")

	if err := fs.Parse(args); err != nil {
		return driver.ExitUsageError
	}

	if *test {
		failures := selftest.Run()
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, f.String())
		}
		if len(failures) > 0 {
			return driver.ExitExtractionAborted
		}
		fmt.Println("self-test: all checks passed")
		return driver.ExitSuccess
	}

	rest := fs.Args()

	switch {
	case *offsets:
		if len(rest) != 2 {
			usage(fs)
			return driver.ExitUsageError
		}
		return driver.RunOffsets(driver.OffsetsConfig{
			InputPath:   rest[0],
			OutputPath:  rest[1],
			ExcludePath: *exclude,
		})

	case *values:
		if len(rest) != 3 {
			usage(fs)
			return driver.ExitUsageError
		}
		return driver.RunValues(driver.ValuesConfig{
			InputPath:    rest[0],
			OutputPrefix: rest[1],
			NameSpec:     rest[2],
			Verbose:      *verbose,
		})

	default:
		if len(rest) != 3 {
			usage(fs)
			return driver.ExitUsageError
		}
		return driver.Run(driver.Config{
			InputPath:     rest[0],
			RecordsPath:   rest[1],
			TotalsPath:    rest[2],
			SchemaPath:    *schema,
			ExcludePath:   *exclude,
			NamespacePath: *namespaces,
			Verbose:       *verbose,
		})
	}
}
