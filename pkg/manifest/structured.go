package manifest

import (
	"fmt"
)

// document is the schema shared by package.toml and package.yaml.
type document struct {
	Name           string   `toml:"name" yaml:"name"`
	Version        string   `toml:"version" yaml:"version"`
	Description    string   `toml:"description" yaml:"description"`
	BuildType      string   `toml:"build_type" yaml:"build_type"`
	MemberOfGroups []string `toml:"member_of_groups" yaml:"member_of_groups"`

	Depends struct {
		All             []any `toml:"all" yaml:"all"`
		Build           []any `toml:"build" yaml:"build"`
		Buildtool       []any `toml:"buildtool" yaml:"buildtool"`
		BuildExport     []any `toml:"build_export" yaml:"build_export"`
		BuildtoolExport []any `toml:"buildtool_export" yaml:"buildtool_export"`
		Exec            []any `toml:"exec" yaml:"exec"`
		Test            []any `toml:"test" yaml:"test"`
		Doc             []any `toml:"doc" yaml:"doc"`
		Group           []any `toml:"group" yaml:"group"`
	} `toml:"depends" yaml:"depends"`
}

func (d *document) toPackage() (*Package, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("missing package name")
	}
	p := &Package{
		Name:           d.Name,
		Version:        d.Version,
		Description:    d.Description,
		BuildType:      d.BuildType,
		MemberOfGroups: d.MemberOfGroups,
	}

	lists := []struct {
		raw []any
		dst *[]Dependency
	}{
		{d.Depends.Build, &p.BuildDepends},
		{d.Depends.Buildtool, &p.BuildtoolDepends},
		{d.Depends.BuildExport, &p.BuildExportDepends},
		{d.Depends.BuildtoolExport, &p.BuildtoolExportDepends},
		{d.Depends.Exec, &p.ExecDepends},
		{d.Depends.Test, &p.TestDepends},
		{d.Depends.Doc, &p.DocDepends},
	}
	for _, l := range lists {
		deps, err := decodeDependencies(l.raw)
		if err != nil {
			return nil, err
		}
		*l.dst = deps
	}

	// "all" is shorthand for build, build_export and exec.
	all, err := decodeDependencies(d.Depends.All)
	if err != nil {
		return nil, err
	}
	p.BuildDepends = append(p.BuildDepends, all...)
	p.BuildExportDepends = append(p.BuildExportDepends, all...)
	p.ExecDepends = append(p.ExecDepends, all...)

	groups, err := decodeDependencies(d.Depends.Group)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		p.GroupDepends = append(p.GroupDepends, GroupDependency{Name: g.Name, Condition: g.Condition})
	}
	return p, nil
}

// decodeDependencies accepts a list whose entries are either a bare name or
// a table with "name" and optional "condition" keys.
func decodeDependencies(raw []any) ([]Dependency, error) {
	var out []Dependency
	for _, v := range raw {
		switch e := v.(type) {
		case string:
			out = append(out, Dependency{Name: e})
		case map[string]any:
			name, _ := e["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("dependency entry without name: %v", e)
			}
			cond, _ := e["condition"].(string)
			out = append(out, Dependency{Name: name, Condition: cond})
		default:
			return nil, fmt.Errorf("invalid dependency entry %v (%T)", v, v)
		}
	}
	return out, nil
}
