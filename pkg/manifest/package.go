package manifest

import (
	"maps"
	"slices"
)

// DefaultBuildType is used when a manifest does not declare a build type.
const DefaultBuildType = "ament_cmake"

// Kind names one of the typed dependency lists of a package.
type Kind string

const (
	KindBuild           Kind = "build"
	KindBuildtool       Kind = "buildtool"
	KindBuildExport     Kind = "build_export"
	KindBuildtoolExport Kind = "buildtool_export"
	KindExec            Kind = "exec"
	KindTest            Kind = "test"
	KindDoc             Kind = "doc"
)

// Kinds lists every dependency kind in manifest order.
var Kinds = []Kind{
	KindBuild, KindBuildtool, KindBuildExport, KindBuildtoolExport,
	KindExec, KindTest, KindDoc,
}

// Dependency is one entry of a dependency list.
type Dependency struct {
	Name string
	// Condition is an expression evaluated by [EvaluateCondition].
	// Empty means unconditional.
	Condition string
}

// GroupDependency names a group whose members the package depends on.
// Members is filled in by the workspace once every package is known.
type GroupDependency struct {
	Name      string
	Condition string
	Members   []string
}

// Package is the descriptor of one workspace package.
//
// Values returned by loaders are treated as immutable; methods that change
// the dependency lists return a modified copy.
type Package struct {
	Name        string
	Version     string
	Description string
	BuildType   string

	// Filename is the manifest the package was read from and Format the
	// name of the detector that read it.
	Filename string
	Format   string

	BuildDepends           []Dependency
	BuildtoolDepends       []Dependency
	BuildExportDepends     []Dependency
	BuildtoolExportDepends []Dependency
	ExecDepends            []Dependency
	TestDepends            []Dependency
	DocDepends             []Dependency

	GroupDepends   []GroupDependency
	MemberOfGroups []string

	// MemberConditions holds the condition of each conditional group
	// membership. BuildTypeExports lists build types declared with a
	// condition; the first whose condition holds becomes BuildType.
	// Both are resolved and cleared by Evaluate.
	MemberConditions map[string]string
	BuildTypeExports []Dependency
}

// Depends returns the dependency list of the given kind.
func (p *Package) Depends(k Kind) []Dependency {
	switch k {
	case KindBuild:
		return p.BuildDepends
	case KindBuildtool:
		return p.BuildtoolDepends
	case KindBuildExport:
		return p.BuildExportDepends
	case KindBuildtoolExport:
		return p.BuildtoolExportDepends
	case KindExec:
		return p.ExecDepends
	case KindTest:
		return p.TestDepends
	case KindDoc:
		return p.DocDepends
	}
	return nil
}

func (p *Package) list(k Kind) *[]Dependency {
	switch k {
	case KindBuild:
		return &p.BuildDepends
	case KindBuildtool:
		return &p.BuildtoolDepends
	case KindBuildExport:
		return &p.BuildExportDepends
	case KindBuildtoolExport:
		return &p.BuildtoolExportDepends
	case KindExec:
		return &p.ExecDepends
	case KindTest:
		return &p.TestDepends
	case KindDoc:
		return &p.DocDepends
	}
	return nil
}

// Names returns the dependency names of the given kinds in list order,
// without duplicates.
func (p *Package) Names(kinds ...Kind) []string {
	var names []string
	seen := make(map[string]bool)
	for _, k := range kinds {
		for _, d := range p.Depends(k) {
			if !seen[d.Name] {
				seen[d.Name] = true
				names = append(names, d.Name)
			}
		}
	}
	return names
}

// GroupMembers returns the materialized members of every group dependency.
func (p *Package) GroupMembers() []string {
	var names []string
	for _, g := range p.GroupDepends {
		names = append(names, g.Members...)
	}
	return names
}

// BuildTypeOrDefault returns the declared build type or [DefaultBuildType].
func (p *Package) BuildTypeOrDefault() string {
	if p.BuildType == "" {
		return DefaultBuildType
	}
	return p.BuildType
}

// Clone returns a deep copy of p.
func (p *Package) Clone() *Package {
	c := *p
	for _, k := range Kinds {
		l := c.list(k)
		*l = slices.Clone(*l)
	}
	c.GroupDepends = make([]GroupDependency, len(p.GroupDepends))
	for i, g := range p.GroupDepends {
		g.Members = slices.Clone(g.Members)
		c.GroupDepends[i] = g
	}
	c.MemberOfGroups = slices.Clone(p.MemberOfGroups)
	c.MemberConditions = maps.Clone(p.MemberConditions)
	c.BuildTypeExports = slices.Clone(p.BuildTypeExports)
	return &c
}

// Evaluate returns a copy of p whose dependency lists only contain the
// entries whose condition holds in env. Conditions are cleared on the kept
// entries. Conditional group memberships and build types are resolved the
// same way.
func (p *Package) Evaluate(env map[string]string) (*Package, error) {
	c := p.Clone()
	for _, k := range Kinds {
		l := c.list(k)
		kept := (*l)[:0]
		for _, d := range *l {
			ok, err := EvaluateCondition(d.Condition, env)
			if err != nil {
				return nil, conditionError(p, d.Name, d.Condition, err)
			}
			if ok {
				d.Condition = ""
				kept = append(kept, d)
			}
		}
		*l = kept
	}
	groups := c.GroupDepends[:0]
	for _, g := range c.GroupDepends {
		ok, err := EvaluateCondition(g.Condition, env)
		if err != nil {
			return nil, conditionError(p, g.Name, g.Condition, err)
		}
		if ok {
			g.Condition = ""
			groups = append(groups, g)
		}
	}
	c.GroupDepends = groups

	if len(c.MemberConditions) > 0 {
		members := c.MemberOfGroups[:0]
		for _, g := range c.MemberOfGroups {
			cond := c.MemberConditions[g]
			ok, err := EvaluateCondition(cond, env)
			if err != nil {
				return nil, conditionError(p, g, cond, err)
			}
			if ok {
				members = append(members, g)
			}
		}
		c.MemberOfGroups = members
		c.MemberConditions = nil
	}
	if len(c.BuildTypeExports) > 0 {
		c.BuildType = ""
		for _, bt := range c.BuildTypeExports {
			ok, err := EvaluateCondition(bt.Condition, env)
			if err != nil {
				return nil, conditionError(p, bt.Name, bt.Condition, err)
			}
			if ok {
				c.BuildType = bt.Name
				break
			}
		}
		c.BuildTypeExports = nil
	}
	return c, nil
}

// WithGroupMembers returns a copy of p whose group dependencies list the
// packages, sorted by name, that declare membership in each group.
func (p *Package) WithGroupMembers(members map[string][]string) *Package {
	c := p.Clone()
	for i := range c.GroupDepends {
		m := slices.Clone(members[c.GroupDepends[i].Name])
		slices.Sort(m)
		c.GroupDepends[i].Members = m
	}
	return c
}
