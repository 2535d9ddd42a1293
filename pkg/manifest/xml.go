package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// XMLDetector reads ROS style package.xml manifests (formats 1 to 3).
type XMLDetector struct{}

func (XMLDetector) Name() string      { return "xml" }
func (XMLDetector) Filename() string  { return "package.xml" }
func (XMLDetector) Depends() []string { return nil }

type xmlDependency struct {
	Name      string `xml:",chardata"`
	Condition string `xml:"condition,attr"`
}

type xmlPackage struct {
	XMLName     xml.Name `xml:"package"`
	Format      string   `xml:"format,attr"`
	Name        string   `xml:"name"`
	Version     string   `xml:"version"`
	Description string   `xml:"description"`

	Depend                []xmlDependency `xml:"depend"`
	BuildDepend           []xmlDependency `xml:"build_depend"`
	BuildtoolDepend       []xmlDependency `xml:"buildtool_depend"`
	BuildExportDepend     []xmlDependency `xml:"build_export_depend"`
	BuildtoolExportDepend []xmlDependency `xml:"buildtool_export_depend"`
	ExecDepend            []xmlDependency `xml:"exec_depend"`
	RunDepend             []xmlDependency `xml:"run_depend"`
	TestDepend            []xmlDependency `xml:"test_depend"`
	DocDepend             []xmlDependency `xml:"doc_depend"`
	GroupDepend           []xmlDependency `xml:"group_depend"`
	MemberOfGroup         []xmlDependency `xml:"member_of_group"`

	Export struct {
		BuildType []xmlDependency `xml:"build_type"`
	} `xml:"export"`
}

func (XMLDetector) Parse(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc xmlPackage
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return nil, fmt.Errorf("missing <name>")
	}

	p := &Package{
		Name:                   name,
		Version:                strings.TrimSpace(doc.Version),
		Description:            strings.TrimSpace(doc.Description),
		BuildDepends:           convertXML(doc.BuildDepend),
		BuildtoolDepends:       convertXML(doc.BuildtoolDepend),
		BuildExportDepends:     convertXML(doc.BuildExportDepend),
		BuildtoolExportDepends: convertXML(doc.BuildtoolExportDepend),
		ExecDepends:            convertXML(doc.ExecDepend),
		TestDepends:            convertXML(doc.TestDepend),
		DocDepends:             convertXML(doc.DocDepend),
	}

	// <depend> is build + build_export + exec; format 1 <run_depend> is
	// build_export + exec.
	all := convertXML(doc.Depend)
	run := convertXML(doc.RunDepend)
	p.BuildDepends = append(p.BuildDepends, all...)
	p.BuildExportDepends = append(append(p.BuildExportDepends, all...), run...)
	p.ExecDepends = append(append(p.ExecDepends, all...), run...)

	for _, g := range convertXML(doc.GroupDepend) {
		p.GroupDepends = append(p.GroupDepends, GroupDependency{Name: g.Name, Condition: g.Condition})
	}
	for _, g := range convertXML(doc.MemberOfGroup) {
		p.MemberOfGroups = append(p.MemberOfGroups, g.Name)
		if g.Condition != "" {
			if p.MemberConditions == nil {
				p.MemberConditions = make(map[string]string)
			}
			p.MemberConditions[g.Name] = g.Condition
		}
	}

	// Until conditions are evaluated the first unconditional build type
	// stands in.
	types := convertXML(doc.Export.BuildType)
	for _, bt := range types {
		if bt.Condition != "" {
			p.BuildTypeExports = types
			continue
		}
		if p.BuildType == "" {
			p.BuildType = bt.Name
		}
	}
	return p, nil
}

func convertXML(in []xmlDependency) []Dependency {
	if len(in) == 0 {
		return nil
	}
	out := make([]Dependency, 0, len(in))
	for _, d := range in {
		out = append(out, Dependency{
			Name:      strings.TrimSpace(d.Name),
			Condition: strings.TrimSpace(d.Condition),
		})
	}
	return out
}
