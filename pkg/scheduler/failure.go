package scheduler

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// Failure reports the packages whose callback failed.
type Failure struct {
	// Packages are the failed package names in the order they failed.
	Packages []string
	Errs     map[string]error
}

func (f *Failure) Error() string {
	if len(f.Packages) == 1 {
		return fmt.Sprintf("package %s failed: %v", f.Packages[0], f.Errs[f.Packages[0]])
	}
	return fmt.Sprintf("%d packages failed: %s", len(f.Packages), strings.Join(f.Packages, ", "))
}

// Unwrap returns the individual failures.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, len(f.Packages))
	for _, name := range f.Packages {
		errs = append(errs, f.Errs[name])
	}
	return errs
}

// Code returns the error code of the first failure, PACKAGE_FAILED when it
// has none.
func (f *Failure) Code() errors.Code {
	if len(f.Packages) > 0 {
		if code := errors.GetCode(f.Errs[f.Packages[0]]); code != "" {
			return code
		}
	}
	return errors.ErrCodePackageFailed
}
