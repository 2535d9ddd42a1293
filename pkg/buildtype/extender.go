package buildtype

import (
	"fmt"
	"slices"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

type extendOp int

const (
	opAdd extendOp = iota
	opReplace
	opExtend
)

func (o extendOp) String() string {
	switch o {
	case opReplace:
		return "replace"
	case opExtend:
		return "extend"
	}
	return "add"
}

type extension struct {
	op    extendOp
	key   string
	value any
}

// Extender records changes to a Context's extension values and applies them
// later, in order. Values must be string, []string or bool.
//
//	ext := buildtype.NewExtender().
//	    Add("cmake_args", []string{"-DX=1"}).
//	    Extend("cmake_args", []string{"-DY=2"})
//	err := ext.Apply(bc)
type Extender struct {
	ops []extension
}

// NewExtender returns an empty extender.
func NewExtender() *Extender { return &Extender{} }

// Add sets key, which must not exist yet.
func (e *Extender) Add(key string, value any) *Extender {
	e.ops = append(e.ops, extension{opAdd, key, value})
	return e
}

// Replace sets key whether or not it exists.
func (e *Extender) Replace(key string, value any) *Extender {
	e.ops = append(e.ops, extension{opReplace, key, value})
	return e
}

// Extend appends to the existing value of key, or sets it when missing.
// Strings are concatenated and string slices appended.
func (e *Extender) Extend(key string, value any) *Extender {
	e.ops = append(e.ops, extension{opExtend, key, value})
	return e
}

// Len returns the number of recorded operations.
func (e *Extender) Len() int { return len(e.ops) }

// Apply validates the recorded operations and applies them to bc. Nothing is
// changed when validation fails. A nil extender applies nothing.
func (e *Extender) Apply(bc *Context) error {
	if e == nil {
		return nil
	}

	staged := make(map[string]any, len(bc.ext)+len(e.ops))
	for k, v := range bc.ext {
		staged[k] = v
	}
	for i, x := range e.ops {
		if err := checkValue(x); err != nil {
			return err
		}
		switch x.op {
		case opAdd:
			if slices.ContainsFunc(e.ops[:i], func(p extension) bool { return p.key == x.key }) {
				return contextError("context key %q will already exist", x.key)
			}
			if prev, ok := staged[x.key]; ok {
				return contextError("context pair '%s:%v' cannot be added because '%s:%v' already exists",
					x.key, x.value, x.key, prev)
			}
			staged[x.key] = cloneValue(x.value)
		case opReplace:
			staged[x.key] = cloneValue(x.value)
		case opExtend:
			prev, ok := staged[x.key]
			if !ok {
				staged[x.key] = cloneValue(x.value)
				continue
			}
			merged, err := extendValue(x.key, prev, x.value)
			if err != nil {
				return err
			}
			staged[x.key] = merged
		}
	}
	bc.ext = staged
	return nil
}

func checkValue(x extension) error {
	switch x.value.(type) {
	case string, []string, bool:
		return nil
	}
	return contextError("%s %q: unsupported value type %T", x.op, x.key, x.value)
}

func cloneValue(v any) any {
	if s, ok := v.([]string); ok {
		return slices.Clone(s)
	}
	return v
}

func extendValue(key string, prev, value any) (any, error) {
	switch p := prev.(type) {
	case string:
		if v, ok := value.(string); ok {
			return p + v, nil
		}
	case []string:
		if v, ok := value.([]string); ok {
			return append(slices.Clone(p), v...), nil
		}
	case bool:
		return nil, contextError("cannot extend bool context key %q", key)
	}
	return nil, contextError("cannot extend context key %q of type %T with %T", key, prev, value)
}

func contextError(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidContext, "%s", fmt.Sprintf(format, args...))
}
