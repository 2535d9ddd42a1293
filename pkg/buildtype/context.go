package buildtype

import (
	"context"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wsbuild/pkg/cache"
	"github.com/matzehuels/wsbuild/pkg/manifest"
)

// Context is everything a plugin knows about the package it handles.
//
// A Context is built per package by the scheduler and handed to one
// pipeline run; plugins must not keep it after their phase returns.
type Context struct {
	Package *manifest.Package

	SourceSpace  string
	BuildSpace   string
	InstallSpace string

	// BuildDependencies are the share directories of the package's
	// workspace dependencies in build order.
	BuildDependencies []string

	// ExecDependencyPaths are the share directories of the exec
	// dependencies that are part of the workspace.
	ExecDependencyPaths []string

	Isolated       bool
	SymlinkInstall bool
	BuildTests     bool
	SkipInstall    bool
	DryRun         bool
	MakeFlags      []string

	// Env is added to the process environment of every command.
	Env map[string]string

	Logger *log.Logger
	Cache  cache.Cache

	ext map[string]any
}

// Clone returns a copy that shares nothing mutable with c.
func (c *Context) Clone() *Context {
	out := *c
	out.BuildDependencies = slices.Clone(c.BuildDependencies)
	out.ExecDependencyPaths = slices.Clone(c.ExecDependencyPaths)
	out.MakeFlags = slices.Clone(c.MakeFlags)
	out.Env = maps.Clone(c.Env)
	out.ext = make(map[string]any, len(c.ext))
	for k, v := range c.ext {
		if s, ok := v.([]string); ok {
			v = slices.Clone(s)
		}
		out.ext[k] = v
	}
	return &out
}

// Value returns the extension value stored under key.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.ext[key]
	return v, ok
}

// Keys returns the extension keys in ascending order.
func (c *Context) Keys() []string { return slices.Sorted(maps.Keys(c.ext)) }

// String returns a string extension, or "" when missing or of another type.
func (c *Context) String(key string) string {
	s, _ := c.ext[key].(string)
	return s
}

// Strings returns a []string extension, or nil.
func (c *Context) Strings(key string) []string {
	s, _ := c.ext[key].([]string)
	return s
}

// Bool returns a bool extension, or false.
func (c *Context) Bool(key string) bool {
	b, _ := c.ext[key].(bool)
	return b
}

// Log returns the context logger, or the default logger.
func (c *Context) Log() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// Store returns the context cache, or a cache that never hits.
func (c *Context) Store() cache.Cache {
	if c.Cache == nil {
		return cache.NewNullCache()
	}
	return c.Cache
}

// Environ returns the process environment with Env applied, sorted.
func (c *Context) Environ() []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	maps.Copy(env, c.Env)

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

// Getenv looks key up in Env, then in the process environment.
func (c *Context) Getenv(key string) (string, bool) {
	if v, ok := c.Env[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

type contextKey struct{}

// WithContext attaches bc to ctx.
func WithContext(ctx context.Context, bc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, bc)
}

// FromContext returns the build context attached by [WithContext].
func FromContext(ctx context.Context) (*Context, bool) {
	bc, ok := ctx.Value(contextKey{}).(*Context)
	return bc, ok
}
