// Package params applies order parameter values to a model's user
// parameters and reports per-parameter outcomes.
package params

import (
	"fmt"
	"sort"
	"strconv"

	"campipe/internal/host"
	"campipe/internal/result"
)

// ApplyBatch applies every value in the batch, in sorted name order so the
// result sequence is stable, and returns one record per parameter. A failed
// entry never stops the batch; the caller decides what a partial batch means.
func ApplyBatch(store host.ParameterStore, values map[string]any) []result.Result {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]result.Result, 0, len(names))
	for _, name := range names {
		results = append(results, Apply(store, name, values[name]))
	}
	return results
}

// Apply updates one parameter and reports the old and new expressions.
func Apply(store host.ParameterStore, name string, value any) result.Result {
	param, ok := store.Get(name)
	if !ok {
		return result.Fail(name, fmt.Sprintf("Parameter '%s' not found in model", name))
	}

	old := param.Expression()
	expr := FormatValue(value)
	if err := param.SetExpression(expr); err != nil {
		return result.Fail(name, fmt.Sprintf("Failed to update '%s': %v", name, err))
	}
	return result.Ok(name, fmt.Sprintf("Updated '%s' from '%s' to '%s'", name, old, expr))
}

// FormatValue renders an order parameter value as a host expression string.
// Strings pass through untouched so units survive ("96 in", "45 deg").
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MissingNames returns the names that do not exist in the store, preserving
// the order they were asked for.
func MissingNames(store host.ParameterStore, names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := store.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Info is a read-only snapshot of one user parameter.
type Info struct {
	Name       string
	Expression string
	Value      float64
	Unit       string
	Comment    string
}

// List snapshots all user parameters in definition order.
func List(store host.ParameterStore) []Info {
	names := store.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		p, ok := store.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, Info{
			Name:       p.Name(),
			Expression: p.Expression(),
			Value:      p.Value(),
			Unit:       p.Unit(),
			Comment:    p.Comment(),
		})
	}
	return infos
}
