package manifest

import (
	"os"

	"github.com/BurntSushi/toml"
)

// TOMLDetector reads package.toml manifests.
type TOMLDetector struct{}

func (TOMLDetector) Name() string      { return "toml" }
func (TOMLDetector) Filename() string  { return "package.toml" }
func (TOMLDetector) Depends() []string { return nil }

func (TOMLDetector) Parse(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.toPackage()
}
