package scheduler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/topo"
)

// Selection restricts the packages a run processes.
type Selection struct {
	StartWith string
	EndWith   string
	Only      []string
	Skip      []string

	// Reverse processes the order backwards, as uninstall does. StartWith
	// and EndWith keep their meaning in the original order: the run begins
	// at EndWith and stops after StartWith.
	Reverse bool
}

// PlanEntry is one package of a plan.
type PlanEntry struct {
	topo.Entry
	Skip bool
}

// Plan is an ordering with the selection applied.
type Plan struct {
	Entries []PlanEntry

	// StopAfter is the package after which processing stops, or "".
	StopAfter string
}

// Selected returns the entries that are processed, in order.
func (p *Plan) Selected() []topo.Entry {
	var out []topo.Entry
	for _, e := range p.Entries {
		if !e.Skip {
			out = append(out, e.Entry)
		}
	}
	return out
}

// Skipped returns the names of the skipped packages, in order.
func (p *Plan) Skipped() []string {
	var out []string
	for _, e := range p.Entries {
		if e.Skip {
			out = append(out, e.Package.Name)
		}
	}
	return out
}

// String renders the plan as the listing printed before a run; skipped
// packages are in parentheses.
func (p *Plan) String() string {
	var b strings.Builder
	b.WriteString("# Topological order\n")
	for _, e := range p.Entries {
		if e.Skip {
			fmt.Fprintf(&b, " - (%s)\n", e.Package.Name)
		} else {
			fmt.Fprintf(&b, " - %s\n", e.Package.Name)
		}
	}
	return b.String()
}

// Select validates sel against entries and computes the plan. A cycle in
// entries is reported as DEPENDENCY_CYCLE; every other problem as
// INVALID_SELECTION.
func Select(entries []topo.Entry, sel Selection) (*Plan, error) {
	if err := topo.CheckCycle(entries); err != nil {
		return nil, err
	}
	names := topo.Names(entries)

	for _, opt := range []struct{ flag, name string }{
		{"--start-with", sel.StartWith},
		{"--end-with", sel.EndWith},
	} {
		if opt.name != "" && !slices.Contains(names, opt.name) {
			return nil, notFound(opt.name, opt.flag, names)
		}
	}
	if len(sel.Only) > 0 && (sel.StartWith != "" || sel.EndWith != "") {
		return nil, errors.New(errors.ErrCodeSelection,
			"the --start-with and --end-with options cannot be used with the --only option")
	}
	for _, n := range sel.Only {
		if !slices.Contains(names, n) {
			return nil, notFound(n, "--only", names)
		}
	}
	var missing []string
	for _, n := range sel.Skip {
		if !slices.Contains(names, n) {
			missing = append(missing, n)
		}
		if slices.Contains(sel.Only, n) {
			return nil, errors.New(errors.ErrCodeSelection,
				"cannot --skip and --only the same package: '%s'", n)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeSelection,
			"packages [%s] specified with --skip were not found", strings.Join(missing, ", "))
	}

	if sel.StartWith != "" && sel.EndWith != "" &&
		slices.Index(names, sel.EndWith) < slices.Index(names, sel.StartWith) {
		return nil, errors.New(errors.ErrCodeSelection,
			"the --end-with package '%s' occurs topologically before the --start-with package '%s'",
			sel.EndWith, sel.StartWith)
	}

	order := slices.Clone(entries)
	first, last := sel.StartWith, sel.EndWith
	if sel.Reverse {
		slices.Reverse(order)
		first, last = last, first
	}

	plan := &Plan{StopAfter: last}
	started := first == ""
	stopped := false
	for _, e := range order {
		name := e.Package.Name
		if name == first {
			started = true
		}
		skip := !started || stopped ||
			slices.Contains(sel.Skip, name) ||
			(len(sel.Only) > 0 && !slices.Contains(sel.Only, name))
		plan.Entries = append(plan.Entries, PlanEntry{Entry: e, Skip: skip})
		if name == last {
			stopped = true
		}
	}
	return plan, nil
}

func notFound(name, flag string, names []string) error {
	msg := fmt.Sprintf("package '%s' specified with %s was not found", name, flag)
	if s := Suggest(name, names); s != "" {
		msg += fmt.Sprintf(" (did you mean '%s'?)", s)
	}
	return errors.New(errors.ErrCodeSelection, "%s", msg)
}

// Suggest returns the name in names closest to name by edit distance, or ""
// when none is close enough to be a likely typo.
func Suggest(name string, names []string) string {
	best, bestDist := "", -1
	for _, n := range names {
		d := levenshtein.Distance(name, n, nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	limit := max(2, len(name)/3)
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
