package buildtype

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

func TestExtenderAdd(t *testing.T) {
	bc := &Context{}
	if err := NewExtender().Add("flag", true).Add("args", []string{"-a"}).Apply(bc); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bc.Bool("flag") {
		t.Error("Bool(flag) = false, want true")
	}
	if diff := cmp.Diff([]string{"-a"}, bc.Strings("args")); diff != "" {
		t.Errorf("Strings(args) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"args", "flag"}, bc.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtenderAddConflicts(t *testing.T) {
	tests := []struct {
		name string
		pre  *Extender
		ext  *Extender
	}{
		{"twice in one extender", nil, NewExtender().Add("k", "a").Add("k", "b")},
		{"after replace", nil, NewExtender().Replace("k", "a").Add("k", "b")},
		{"already in context", NewExtender().Add("k", "a"), NewExtender().Add("k", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := &Context{}
			if err := tt.pre.Apply(bc); err != nil {
				t.Fatalf("pre Apply: %v", err)
			}
			err := tt.ext.Apply(bc)
			if !errors.Is(err, errors.ErrCodeInvalidContext) {
				t.Fatalf("Apply error = %v, want INVALID_CONTEXT", err)
			}
		})
	}
}

func TestExtenderReplace(t *testing.T) {
	bc := &Context{}
	ext := NewExtender().Replace("name", "a").Replace("name", "b")
	if err := ext.Apply(bc); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := bc.String("name"); got != "b" {
		t.Errorf("String(name) = %q, want %q", got, "b")
	}
}

func TestExtenderExtend(t *testing.T) {
	bc := &Context{}
	ext := NewExtender().
		Extend("args", []string{"-a"}).
		Extend("args", []string{"-b"}).
		Add("prefix", "x").
		Extend("prefix", "y")
	if err := ext.Apply(bc); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([]string{"-a", "-b"}, bc.Strings("args")); diff != "" {
		t.Errorf("Strings(args) mismatch (-want +got):\n%s", diff)
	}
	if got := bc.String("prefix"); got != "xy" {
		t.Errorf("String(prefix) = %q, want %q", got, "xy")
	}
}

func TestExtenderRejects(t *testing.T) {
	tests := []struct {
		name string
		ext  *Extender
	}{
		{"bool", NewExtender().Add("b", true).Extend("b", false)},
		{"type mismatch", NewExtender().Add("s", "x").Extend("s", []string{"y"})},
		{"unsupported value", NewExtender().Add("n", 42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := &Context{}
			if err := tt.ext.Apply(bc); !errors.Is(err, errors.ErrCodeInvalidContext) {
				t.Errorf("Apply error = %v, want INVALID_CONTEXT", err)
			}
			if len(bc.Keys()) != 0 {
				t.Errorf("failed Apply left keys %v", bc.Keys())
			}
		})
	}
}

func TestExtenderCopiesSlices(t *testing.T) {
	args := []string{"-a"}
	bc := &Context{}
	if err := NewExtender().Add("args", args).Apply(bc); err != nil {
		t.Fatal(err)
	}
	args[0] = "changed"
	if got := bc.Strings("args")[0]; got != "-a" {
		t.Errorf("stored value = %q, want %q", got, "-a")
	}

	clone := bc.Clone()
	clone.Strings("args")[0] = "mutated"
	if got := bc.Strings("args")[0]; got != "-a" {
		t.Errorf("Clone shares slices: got %q", got)
	}
}
