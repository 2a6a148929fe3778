package order

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ValidationResult is the outcome of validating an order document. Errors
// preserves rule order and is never deduplicated.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func invalid(errs ...string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

// Validate checks a decoded order document against the order schema rules.
// It accumulates every violation, with two stop points: a non-object root
// yields exactly one error, and missing required root fields suppress the
// deeper checks that would only add noise.
func Validate(raw any) ValidationResult {
	doc, ok := raw.(map[string]any)
	if !ok {
		return invalid("Order must be a JSON object")
	}

	var errs []string
	for _, field := range []string{"version", "orderId", "components"} {
		if _, ok := doc[field]; !ok {
			errs = append(errs, fmt.Sprintf("Missing required field: '%s'", field))
		}
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}

	if !validVersion(doc["version"]) {
		errs = append(errs, fmt.Sprintf("Invalid version format: '%v' (expected X.Y.Z)", doc["version"]))
	}

	if id, ok := doc["orderId"].(string); !ok || id == "" {
		errs = append(errs, "orderId cannot be empty")
	}

	if components, ok := doc["components"].([]any); ok {
		if len(components) == 0 {
			errs = append(errs, "components array must contain at least 1 item")
		} else {
			seen := make(map[string]bool)
			for i, c := range components {
				errs = append(errs, validateComponent(c, i)...)

				obj, ok := c.(map[string]any)
				if !ok {
					continue
				}
				if id, ok := obj["componentId"].(string); ok && id != "" {
					if seen[id] {
						errs = append(errs, fmt.Sprintf("Duplicate componentId: '%s'", id))
					}
					seen[id] = true
				}
			}
		}
	} else {
		errs = append(errs, "components must be an array")
	}

	if cfg, ok := doc["outputConfig"]; ok {
		errs = append(errs, validateOutputConfig(cfg)...)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateFile reads and validates an order JSON file. A missing file and
// malformed JSON are reported as validation errors, not returned errors.
func ValidateFile(path string) ValidationResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return invalid(fmt.Sprintf("Order file not found: %s", path))
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return invalid(fmt.Sprintf("Invalid JSON syntax: %v", err))
	}
	return Validate(raw)
}

// validVersion reports whether v is a string of exactly three dot-separated
// all-digit groups.
func validVersion(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	var groups, digits int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			if digits == 0 {
				return false
			}
			groups++
			digits = 0
		default:
			return false
		}
	}
	return groups == 2 && digits > 0
}

func validateComponent(c any, index int) []string {
	prefix := fmt.Sprintf("Component[%d]", index)

	obj, ok := c.(map[string]any)
	if !ok {
		return []string{prefix + ": Must be an object"}
	}

	var errs []string
	for _, field := range []string{"componentId", "fusionModelPath", "parameters"} {
		if _, ok := obj[field]; !ok {
			errs = append(errs, fmt.Sprintf("%s: Missing required field '%s'", prefix, field))
		}
	}

	if id, ok := obj["componentId"].(string); !ok || id == "" {
		errs = append(errs, prefix+": componentId must be a non-empty string")
	}
	if p, ok := obj["fusionModelPath"].(string); !ok || p == "" {
		errs = append(errs, prefix+": fusionModelPath must be a non-empty string")
	}

	// An explicit null is tolerated here; the processor rejects empty
	// parameter sets at run time with a per-component failure instead.
	if params, ok := obj["parameters"]; ok && params != nil {
		if m, ok := params.(map[string]any); ok {
			errs = append(errs, validateParameters(m, prefix)...)
		} else {
			errs = append(errs, prefix+": parameters must be an object")
		}
	}

	if names, ok := obj["setupNames"]; ok {
		if list, ok := names.([]any); ok {
			for _, n := range list {
				if _, ok := n.(string); !ok {
					errs = append(errs, prefix+": All setupNames must be strings")
					break
				}
			}
		} else {
			errs = append(errs, prefix+": setupNames must be an array")
		}
	}

	if cfg, ok := obj["postProcessorConfig"]; ok {
		if _, ok := cfg.(map[string]any); !ok {
			errs = append(errs, prefix+": postProcessorConfig must be an object")
		}
	}

	return errs
}

// validateParameters walks parameter names in sorted order so repeated
// validation of the same document reports errors in the same sequence.
func validateParameters(params map[string]any, prefix string) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []string
	for _, name := range names {
		if name == "" {
			errs = append(errs, prefix+".parameters: Invalid parameter name")
			continue
		}
		if !scalarValue(params[name]) {
			errs = append(errs, fmt.Sprintf("%s.parameters.%s: Invalid value type (must be number, string, or integer)", prefix, name))
		}
	}
	return errs
}

// scalarValue reports whether v is an allowed parameter value. Booleans,
// nulls, and nested structures are rejected.
func scalarValue(v any) bool {
	switch v.(type) {
	case string, float64, int, int64:
		return true
	}
	return false
}

func validateOutputConfig(cfg any) []string {
	obj, ok := cfg.(map[string]any)
	if !ok {
		return []string{"outputConfig must be an object"}
	}

	var errs []string
	if v, ok := obj["baseDirectory"]; ok {
		if _, ok := v.(string); !ok {
			errs = append(errs, "outputConfig.baseDirectory must be a string")
		}
	}
	if v, ok := obj["includeTimestamp"]; ok {
		if _, ok := v.(bool); !ok {
			errs = append(errs, "outputConfig.includeTimestamp must be a boolean")
		}
	}
	return errs
}
