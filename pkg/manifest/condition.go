package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/cel-go/cel"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// envVar is the CEL map variable that $NAME operands are rewritten into.
const envVar = "env"

var (
	celEnv = sync.OnceValues(func() (*cel.Env, error) {
		return cel.NewEnv(cel.Variable(envVar, cel.MapType(cel.StringType, cel.StringType)))
	})
	programs sync.Map // translated expression -> cel.Program
)

// EvaluateCondition evaluates a dependency condition against env.
// The empty condition is true.
//
// Conditions compare words, quoted strings and $VARIABLES with ==, !=, <,
// <=, > and >=, combined with and, or and parentheses. All comparisons are
// on strings; an unset variable is the empty string.
func EvaluateCondition(expr string, env map[string]string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	translated, vars, err := translateCondition(expr)
	if err != nil {
		return false, err
	}
	prg, err := conditionProgram(translated)
	if err != nil {
		return false, err
	}

	values := make(map[string]string, len(vars))
	for _, name := range vars {
		values[name] = env[name]
	}
	out, _, err := prg.Eval(map[string]any{envVar: values})
	if err != nil {
		return false, fmt.Errorf("evaluate: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool", expr)
	}
	return result, nil
}

func conditionProgram(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := celEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition is a %s, not a comparison", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	programs.Store(expr, prg)
	return prg, nil
}

// translateCondition rewrites a manifest condition into CEL: $NAME becomes
// env["NAME"], words and quoted strings become string literals, and/or
// become &&/||. It returns the referenced variable names.
func translateCondition(s string) (string, []string, error) {
	var (
		b    strings.Builder
		vars []string
	)
	emit := func(tok string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			emit(string(c))
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			if i+1 < len(s) && s[i+1] == '=' {
				emit(s[i : i+2])
				i += 2
				continue
			}
			if c == '=' || c == '!' {
				return "", nil, fmt.Errorf("invalid operator %q at offset %d", string(c), i)
			}
			emit(string(c))
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			emit(strconv.Quote(s[i+1 : i+1+end]))
			i += end + 2
		case c == '$':
			j := i + 1
			for j < len(s) && isWordRune(rune(s[j])) {
				j++
			}
			if j == i+1 {
				return "", nil, fmt.Errorf("empty variable name at offset %d", i)
			}
			name := s[i+1 : j]
			vars = append(vars, name)
			emit(envVar + "[" + strconv.Quote(name) + "]")
			i = j
		case isWordRune(rune(c)):
			j := i
			for j < len(s) && isWordRune(rune(s[j])) {
				j++
			}
			switch w := s[i:j]; w {
			case "and":
				emit("&&")
			case "or":
				emit("||")
			default:
				emit(strconv.Quote(w))
			}
			i = j
		default:
			return "", nil, fmt.Errorf("unexpected character %q at offset %d", string(c), i)
		}
	}
	return b.String(), vars, nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

func conditionError(p *Package, dep, cond string, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidManifest, err,
		"package %q: invalid condition %q on dependency %q", p.Name, cond, dep)
}
