// Package report renders fit results as the fixed-width text lines of the
// per-core evaluation files.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cputemp_fitting/internal/models"
)

// DefaultPattern names the evaluation file of a core.
const DefaultPattern = "Evaluation-core-%d.txt"

const (
	labelRegression    = "Least Squares Approximation"
	labelInterpolation = "Interpolation"
)

// Label is the trailing description of a result line.
func Label(k models.FitKind) string {
	if k == models.Regression {
		return labelRegression
	}
	return labelInterpolation
}

// FormatResult renders
//
//	<from> <= x < <to> = <intercept>      + <slope>x; <label>
func FormatResult(r models.FitResult) string {
	return fmt.Sprintf("%8.0f <= x < %8.0f = %15.5f      + %15.5fx; %s",
		r.ValidFrom, r.ValidTo, r.Intercept, r.Slope, Label(r.Kind))
}

// Lines formats every result of one core in order.
func Lines(results []models.FitResult) []string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = FormatResult(r)
	}
	return lines
}

// WriteCore writes one newline-terminated line per result.
func WriteCore(w io.Writer, results []models.FitResult) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if _, err := bw.WriteString(FormatResult(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FileSink writes each core's results to its own file in Dir.
type FileSink struct {
	Dir     string
	Pattern string
}

func NewFileSink(dir, pattern string) *FileSink {
	if dir == "" {
		dir = "."
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &FileSink{Dir: dir, Pattern: pattern}
}

// Path is the evaluation file of core.
func (s *FileSink) Path(core int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(s.Pattern, core))
}

// Write creates one file per successfully fitted core and returns the paths
// written. Failed cores get no file. Every core is attempted; write errors are
// joined.
func (s *FileSink) Write(fits []models.CoreFits) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %q: %w", s.Dir, err)
	}

	var (
		paths []string
		errs  []error
	)
	for _, f := range fits {
		if f.Err != "" {
			continue
		}
		path := s.Path(f.Core)
		if err := writeFile(path, f.Results); err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func writeFile(path string, results []models.FitResult) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()

	if err := WriteCore(file, results); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
