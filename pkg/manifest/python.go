package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// PythonDetector reads setuptools projects from their setup.py. Only literal
// keyword arguments are understood; the file is never executed.
type PythonDetector struct{}

func (PythonDetector) Name() string     { return "python" }
func (PythonDetector) Filename() string { return "setup.py" }
func (PythonDetector) Depends() []string {
	return []string{"toml", "xml", "yaml", "cmake"}
}

var (
	pyCommentRe  = regexp.MustCompile(`(?m)^\s*#.*$`)
	pyNameRe     = regexp.MustCompile(`\bname\s*=\s*(?:["']([^"']+)["']|([A-Za-z_][A-Za-z0-9_]*))`)
	pyVersionRe  = regexp.MustCompile(`\bversion\s*=\s*(?:["']([^"']+)["']|([A-Za-z_][A-Za-z0-9_]*))`)
	pyRequiresRe = regexp.MustCompile(`\binstall_requires\s*=\s*\[([^\]]*)\]`)
	pyStringRe   = regexp.MustCompile(`["']([^"']+)["']`)
	pyReqNameRe  = regexp.MustCompile(`^[^<>=!~;\[\s]+`)
)

func (PythonDetector) Parse(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := pyCommentRe.ReplaceAllString(string(data), "")

	name := pyKeyword(content, pyNameRe)
	if name == "" {
		return nil, fmt.Errorf("failed to extract package name from setup()")
	}
	p := &Package{
		Name:      name,
		Version:   pyKeyword(content, pyVersionRe),
		BuildType: "ament_python",
	}
	if m := pyRequiresRe.FindStringSubmatch(content); m != nil {
		for _, s := range pyStringRe.FindAllStringSubmatch(m[1], -1) {
			if dep := requirementName(s[1]); dep != "" {
				p.BuildDepends = append(p.BuildDepends, Dependency{Name: dep})
			}
		}
	}
	return p, nil
}

// pyKeyword returns the value of a setup() keyword. A bare identifier is
// resolved through a module level string assignment such as
// `package_name = 'demo'`.
func pyKeyword(content string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	assign := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(m[2]) + `\s*=\s*["']([^"']+)["']`)
	if a := assign.FindStringSubmatch(content); a != nil {
		return a[1]
	}
	return ""
}

// requirementName strips version specifiers, extras and markers from a
// requirement and normalizes dashes to underscores.
func requirementName(req string) string {
	name := pyReqNameRe.FindString(strings.TrimSpace(req))
	return strings.ReplaceAll(name, "-", "_")
}
