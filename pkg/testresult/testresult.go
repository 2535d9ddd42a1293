// Package testresult reads the JUnit XML reports package tests leave in the
// build space and sums them up.
package testresult

import (
	"context"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNotJUnit is returned by [Read] for XML files whose root element is not
// testsuite or testsuites.
var ErrNotJUnit = stderrors.New("not a junit report")

// Counts are the totals of one or more reports.
type Counts struct {
	Tests    int
	Errors   int
	Failures int
	Skipped  int
}

// Add adds o to c.
func (c *Counts) Add(o Counts) {
	c.Tests += o.Tests
	c.Errors += o.Errors
	c.Failures += o.Failures
	c.Skipped += o.Skipped
}

// Unstable reports whether any test errored or failed.
func (c Counts) Unstable() bool { return c.Errors > 0 || c.Failures > 0 }

func (c Counts) String() string {
	return fmt.Sprintf("%d tests, %d errors, %d failures, %d skipped", c.Tests, c.Errors, c.Failures, c.Skipped)
}

// Result is one report file, Path relative to the collected root.
type Result struct {
	Path string
	Counts
}

type suite struct {
	XMLName  xml.Name
	Tests    string  `xml:"tests,attr"`
	Errors   string  `xml:"errors,attr"`
	Failures string  `xml:"failures,attr"`
	Skip     string  `xml:"skip,attr"`
	Skipped  string  `xml:"skipped,attr"`
	Suites   []suite `xml:"testsuite"`
}

// Read returns the counts of the report at path. A testsuites root without
// its own tests attribute is the sum of its testsuite children.
func Read(path string) (Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Counts{}, err
	}
	var s suite
	if err := xml.Unmarshal(data, &s); err != nil {
		return Counts{}, err
	}
	switch s.XMLName.Local {
	case "testsuite", "testsuites":
	default:
		return Counts{}, ErrNotJUnit
	}
	return s.counts()
}

func (s suite) counts() (Counts, error) {
	if s.XMLName.Local == "testsuites" && s.Tests == "" {
		var total Counts
		for _, child := range s.Suites {
			c, err := child.counts()
			if err != nil {
				return Counts{}, err
			}
			total.Add(c)
		}
		return total, nil
	}

	skipped := s.Skip
	if skipped == "" {
		skipped = s.Skipped
	}
	var c Counts
	for _, f := range []struct {
		name  string
		value string
		dst   *int
	}{
		{"tests", s.Tests, &c.Tests},
		{"errors", s.Errors, &c.Errors},
		{"failures", s.Failures, &c.Failures},
		{"skipped", skipped, &c.Skipped},
	} {
		if f.value == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(f.value))
		if err != nil {
			return Counts{}, fmt.Errorf("attribute %s: %w", f.name, err)
		}
		*f.dst = n
	}
	return c, nil
}

// Collect reads every *.xml report below root, skipping hidden directories.
// Files that are not JUnit reports are ignored; unreadable reports are
// logged and ignored.
func Collect(ctx context.Context, root string, logger *log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.Default()
	}
	var results []Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".xml" {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		c, err := Read(path)
		switch {
		case stderrors.Is(err, ErrNotJUnit):
			logger.Debug("Ignoring non-junit file", "file", rel)
			return nil
		case err != nil:
			logger.Warn("Skipping unreadable test result", "file", rel, "err", err)
			return nil
		}
		results = append(results, Result{Path: rel, Counts: c})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
