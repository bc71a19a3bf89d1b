package filterexpr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
)

// ValueKind describes the type a filter variable carries.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
)

// Schema aggregates filtering and ordering rules for a resource.
type Schema struct {
	Fields map[string]ValueKind
	Order  OrderSchema
}

// Filter is a compiled boolean CEL expression. A nil Filter matches everything.
type Filter struct {
	raw string
	prg cel.Program
}

// Compile parses and type-checks raw against the schema fields. A blank expression yields a nil Filter.
func Compile(raw string, fields map[string]ValueKind) (*Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if len(fields) == 0 {
		return nil, errors.New("filter schema has no fields defined")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(raw)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}
	return &Filter{raw: raw, prg: prg}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.raw
}

// Match evaluates the filter against one activation.
func (f *Filter) Match(vars map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter produced %T, want bool", out.Value())
	}
	return matched, nil
}

// Apply keeps the items whose activation matches f, preserving order.
func Apply[T any](items []T, f *Filter, activation func(T) map[string]any) ([]T, error) {
	if f == nil {
		return items, nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(activation(item))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func buildEnv(fields map[string]ValueKind) (*cel.Env, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for _, name := range names {
		celType, err := celTypeForKind(fields[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindInt:
		return cel.IntType, nil
	case KindBool:
		return cel.BoolType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}
