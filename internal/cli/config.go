package cli

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// Config is the content of a wsbuild.toml file. Every key mirrors a flag of
// the same name; a flag given on the command line wins.
type Config struct {
	BasePath       string   `toml:"basepath"`
	BuildSpace     string   `toml:"build_space"`
	InstallSpace   string   `toml:"install_space"`
	Isolated       bool     `toml:"isolated"`
	Parallel       bool     `toml:"parallel"`
	Workers        int      `toml:"workers"`
	Underlays      []string `toml:"underlays"`
	SkipPackages   []string `toml:"skip_packages"`
	SymlinkInstall bool     `toml:"symlink_install"`
	BuildTests     bool     `toml:"build_tests"`
	MakeFlags      []string `toml:"make_flags"`

	// Env is the context package conditions are evaluated in, on top of
	// the process environment.
	Env map[string]string `toml:"env"`

	CMake struct {
		Args           []string `toml:"args"`
		AmentArgs      []string `toml:"ament_args"`
		CTestArgs      []string `toml:"ctest_args"`
		ForceConfigure bool     `toml:"force_configure"`
	} `toml:"cmake"`

	Bazel struct {
		Args []string `toml:"args"`
	} `toml:"bazel"`

	Python struct {
		Executable string `toml:"executable"`
	} `toml:"python"`
}

// configPath returns the file to load: the explicit path, then
// $WSBUILD_CONFIG, then wsbuild.toml when it exists. Empty means none.
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(configEnv); env != "" {
		return env
	}
	if _, err := os.Stat(configFile); err == nil {
		return configFile
	}
	return ""
}

// loadConfig decodes the file at path. An empty path yields an empty
// config; unknown keys are rejected so typos do not go unnoticed.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// flagValues maps flag names to the config values that default them.
func (c *Config) flagValues() map[string]any {
	return map[string]any{
		"basepath":          c.BasePath,
		"build-space":       c.BuildSpace,
		"install-space":     c.InstallSpace,
		"underlay":          c.Underlays,
		"isolated":          c.Isolated,
		"parallel":          c.Parallel,
		"workers":           c.Workers,
		"skip":              c.SkipPackages,
		"symlink-install":   c.SymlinkInstall,
		"build-tests":       c.BuildTests,
		"make-flags":        c.MakeFlags,
		"cmake-args":        c.CMake.Args,
		"ament-cmake-args":  c.CMake.AmentArgs,
		"ctest-args":        c.CMake.CTestArgs,
		"force-configure":   c.CMake.ForceConfigure,
		"bazel-args":        c.Bazel.Args,
		"python-executable": c.Python.Executable,
	}
}

// apply sets every flag of fs that was not given on the command line and
// has a non-zero config value.
func (c *Config) apply(fs *pflag.FlagSet) error {
	for name, v := range c.flagValues() {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		var err error
		switch v := v.(type) {
		case string:
			if v != "" {
				err = f.Value.Set(v)
			}
		case bool:
			if v {
				err = f.Value.Set("true")
			}
		case int:
			if v != 0 {
				err = f.Value.Set(strconv.Itoa(v))
			}
		case []string:
			if len(v) > 0 {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					err = sv.Replace(v)
				}
			}
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "config value for %q", name)
		}
	}
	return nil
}
