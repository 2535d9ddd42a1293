package manifest

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLDetector reads package.yaml manifests. The schema matches package.toml.
type YAMLDetector struct{}

func (YAMLDetector) Name() string      { return "yaml" }
func (YAMLDetector) Filename() string  { return "package.yaml" }
func (YAMLDetector) Depends() []string { return nil }

func (YAMLDetector) Parse(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.toPackage()
}
