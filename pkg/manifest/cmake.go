package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CMakeDetector reads plain CMake projects. It is consulted after every
// other detector since many package formats also ship a CMakeLists.txt.
type CMakeDetector struct{}

func (CMakeDetector) Name() string     { return "cmake" }
func (CMakeDetector) Filename() string { return "CMakeLists.txt" }
func (CMakeDetector) Depends() []string {
	return []string{"toml", "xml", "yaml"}
}

var (
	cmakeCommentRe = regexp.MustCompile(`("[^"]*")|(#.*)|([^#"]*)`)
	cmakeProjectRe = regexp.MustCompile(`(?i)project\s*\(\s*("?)([a-zA-Z0-9_]+)("?)(\s+[^\)]*)?\)`)
	cmakeFindRe    = regexp.MustCompile(`(?i)find_package\s*\(\s*("?)([a-zA-Z0-9_]+)("?)(\s+[^\)]*)?\)`)
)

func (CMakeDetector) Parse(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := stripCMakeComments(string(data))

	name := matchQuoted(cmakeProjectRe.FindStringSubmatch(content))
	if name == "" {
		return nil, fmt.Errorf("failed to extract project name")
	}
	p := &Package{Name: name, BuildType: "cmake"}
	for _, m := range cmakeFindRe.FindAllStringSubmatch(content, -1) {
		if dep := matchQuoted(m); dep != "" {
			p.BuildDepends = append(p.BuildDepends, Dependency{Name: dep})
		}
	}
	return p, nil
}

// matchQuoted returns the name group of a project/find_package match when
// its quotes are balanced.
func matchQuoted(m []string) string {
	if m == nil || m[1] != m[3] {
		return ""
	}
	return m[2]
}

// stripCMakeComments removes '#' comments that are not inside a quoted string.
func stripCMakeComments(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		var b strings.Builder
		for _, m := range cmakeCommentRe.FindAllStringSubmatch(line, -1) {
			b.WriteString(m[1])
			b.WriteString(m[3])
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
