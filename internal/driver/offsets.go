package driver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bamyers99/mwtemplateparser/internal/logging"
)

// OffsetsConfig drives the -offsets mode, which indexes a records
// stream previously sorted by template id.
type OffsetsConfig struct {
	InputPath   string // sorted records stream, or "-" for stdin
	OutputPath  string // index output, or "-" for stdout
	ExcludePath string // optional; marks excluded ids in the index
}

// RunOffsets consumes a sorted-by-id records stream and writes one line
// per run of equal ids: id<TAB>offset, where offset is the byte
// position of the run's first line, negated when the id is on the
// exclude list.
func RunOffsets(cfg OffsetsConfig) int {
	logger := logging.New(false)
	defer logger.Sync()

	exclude, _, err := loadPolicies(cfg.ExcludePath, "")
	if err != nil {
		logger.Error("failed to load exclude policy", zap.Error(err))
		return ExitPolicyLoadError
	}

	project := deriveProjectName(cfg.OutputPath)
	excluded := func(id int) bool {
		if exclude == nil {
			return false
		}
		return exclude.Decision(id, project)
	}

	in, err := openInput(cfg.InputPath)
	if err != nil {
		logger.Error("failed to open sorted records input", zap.Error(err))
		return ExitInputOpenError
	}
	defer in.Close()

	out, err := openOutput(cfg.OutputPath)
	if err != nil {
		logger.Error("failed to open offsets output", zap.Error(err))
		return ExitOutputWriteError
	}
	defer out.Close()

	if err := writeOffsetRuns(in, out, excluded); err != nil {
		logger.Error("failed to index records stream", zap.Error(err))
		return ExitOutputWriteError
	}
	return ExitSuccess
}

// writeOffsetRuns scans the sorted records stream, tracking the byte
// offset of every line, and emits one index line when the leading id
// field changes.
func writeOffsetRuns(r io.Reader, w io.Writer, excluded func(int) bool) error {
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	var offset int64
	var runID string
	var runStart int64
	haveRun := false

	flush := func() error {
		if !haveRun {
			return nil
		}
		id, err := strconv.Atoi(runID)
		if err != nil {
			return fmt.Errorf("offsets: bad id field %q", runID)
		}
		sign := ""
		if excluded(id) {
			sign = "-"
		}
		_, err = fmt.Fprintf(bw, "%d\t%s%d\n", id, sign, runStart)
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		id := line
		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			id = line[:tab]
		}
		if !haveRun || id != runID {
			if err := flush(); err != nil {
				return err
			}
			runID = id
			runStart = offset
			haveRun = true
		}
		offset += int64(len(line)) + 1
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	return bw.Flush()
}
