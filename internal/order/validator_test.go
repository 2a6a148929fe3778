package order

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func validOrderDoc() map[string]any {
	return map[string]any{
		"version":   "1.0.0",
		"orderId":   "TEST-001",
		"timestamp": "2025-10-24T09:00:00Z",
		"components": []any{
			map[string]any{
				"componentId":     "comp-001",
				"fusionModelPath": "models/cabinet_door.f3d",
				"parameters": map[string]any{
					"component_height":   "96 in",
					"component_width":    36.5,
					"door_hinging_right": 1,
				},
			},
		},
	}
}

func minimalOrderDoc() map[string]any {
	return map[string]any{
		"version": "1.0.0",
		"orderId": "MIN-001",
		"components": []any{
			map[string]any{
				"componentId":     "comp-001",
				"fusionModelPath": "test.f3d",
				"parameters":      map[string]any{},
			},
		},
	}
}

func firstComponent(doc map[string]any) map[string]any {
	return doc["components"].([]any)[0].(map[string]any)
}

func hasError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateValidOrder(t *testing.T) {
	res := Validate(validOrderDoc())
	if !res.Valid {
		t.Fatalf("Expected valid order, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", res.Errors)
	}
}

func TestValidateMinimalOrder(t *testing.T) {
	res := Validate(minimalOrderDoc())
	if !res.Valid {
		t.Fatalf("Expected minimal order to be valid, got errors: %v", res.Errors)
	}
}

func TestValidateNonObjectRoot(t *testing.T) {
	for _, raw := range []any{[]any{}, "order", 42.0, nil, true} {
		res := Validate(raw)
		if res.Valid {
			t.Errorf("Expected %v to be invalid", raw)
		}
		if len(res.Errors) != 1 || res.Errors[0] != "Order must be a JSON object" {
			t.Errorf("Expected single root error, got %v", res.Errors)
		}
	}
}

func TestValidateMissingRootFieldsStop(t *testing.T) {
	res := Validate(map[string]any{})
	if res.Valid {
		t.Fatal("Expected empty order to be invalid")
	}
	want := []string{
		"Missing required field: 'version'",
		"Missing required field: 'orderId'",
		"Missing required field: 'components'",
	}
	if !reflect.DeepEqual(res.Errors, want) {
		t.Errorf("Expected %v, got %v", want, res.Errors)
	}

	// Deeper checks stay suppressed even when only one field is missing.
	doc := validOrderDoc()
	delete(doc, "version")
	doc["orderId"] = ""
	res = Validate(doc)
	if len(res.Errors) != 1 || res.Errors[0] != "Missing required field: 'version'" {
		t.Errorf("Expected only the missing-field error, got %v", res.Errors)
	}
}

func TestValidateVersionFormats(t *testing.T) {
	for _, version := range []string{"1.0.0", "0.0.1", "10.20.30"} {
		doc := validOrderDoc()
		doc["version"] = version
		if res := Validate(doc); !res.Valid {
			t.Errorf("Version %q should be valid, got %v", version, res.Errors)
		}
	}

	for _, version := range []string{"1.0", "1", "v1.0.0", "1.0.0-beta", "", "1..0", ".1.2", "1.0.0.0"} {
		doc := validOrderDoc()
		doc["version"] = version
		res := Validate(doc)
		if res.Valid {
			t.Errorf("Version %q should be invalid", version)
			continue
		}
		if !hasError(res.Errors, "Invalid version format") {
			t.Errorf("Version %q: expected format error, got %v", version, res.Errors)
		}
	}
}

func TestValidateNonStringVersion(t *testing.T) {
	doc := validOrderDoc()
	doc["version"] = 1.0
	res := Validate(doc)
	if res.Valid || !hasError(res.Errors, "Invalid version format") {
		t.Errorf("Expected format error for numeric version, got %v", res.Errors)
	}
}

func TestValidateOrderID(t *testing.T) {
	for _, id := range []string{"ORDER-001", "ABC123", "test-order-2025"} {
		doc := validOrderDoc()
		doc["orderId"] = id
		if res := Validate(doc); !res.Valid {
			t.Errorf("orderId %q should be valid, got %v", id, res.Errors)
		}
	}

	t.Run("Empty", func(t *testing.T) {
		doc := validOrderDoc()
		doc["orderId"] = ""
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "orderId cannot be empty") {
			t.Errorf("Expected orderId error, got %v", res.Errors)
		}
	})

	t.Run("NonString", func(t *testing.T) {
		doc := validOrderDoc()
		doc["orderId"] = 17.0
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "orderId cannot be empty") {
			t.Errorf("Expected orderId error for numeric id, got %v", res.Errors)
		}
	})
}

func TestValidateComponentsArray(t *testing.T) {
	t.Run("NotArray", func(t *testing.T) {
		doc := validOrderDoc()
		doc["components"] = map[string]any{}
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "components must be an array") {
			t.Errorf("Expected array error, got %v", res.Errors)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		doc := validOrderDoc()
		doc["components"] = []any{}
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "at least 1 item") {
			t.Errorf("Expected at-least-1 error, got %v", res.Errors)
		}
	})

	t.Run("Null", func(t *testing.T) {
		doc := validOrderDoc()
		doc["components"] = nil
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "components must be an array") {
			t.Errorf("Expected array error for null, got %v", res.Errors)
		}
	})

	t.Run("Multiple", func(t *testing.T) {
		doc := validOrderDoc()
		doc["components"] = append(doc["components"].([]any), map[string]any{
			"componentId":     "comp-002",
			"fusionModelPath": "models/side_panel.f3d",
			"parameters":      map[string]any{"height": "80 in"},
		})
		if res := Validate(doc); !res.Valid {
			t.Errorf("Two distinct components should be valid, got %v", res.Errors)
		}
	})
}

func TestValidateDuplicateComponentIDs(t *testing.T) {
	doc := validOrderDoc()
	doc["components"] = append(doc["components"].([]any), map[string]any{
		"componentId":     "comp-001",
		"fusionModelPath": "test.f3d",
		"parameters":      map[string]any{},
	})
	res := Validate(doc)
	if res.Valid {
		t.Fatal("Expected duplicate componentId to fail validation")
	}
	if !hasError(res.Errors, "Duplicate componentId: 'comp-001'") {
		t.Errorf("Expected duplicate error, got %v", res.Errors)
	}

	// A third occurrence reports again; errors are never deduplicated.
	doc["components"] = append(doc["components"].([]any), map[string]any{
		"componentId":     "comp-001",
		"fusionModelPath": "test.f3d",
		"parameters":      map[string]any{},
	})
	res = Validate(doc)
	var dups int
	for _, e := range res.Errors {
		if strings.Contains(e, "Duplicate componentId") {
			dups++
		}
	}
	if dups != 2 {
		t.Errorf("Expected 2 duplicate errors, got %d in %v", dups, res.Errors)
	}
}

func TestValidateComponentFields(t *testing.T) {
	t.Run("NotObject", func(t *testing.T) {
		doc := validOrderDoc()
		doc["components"] = []any{"not-an-object"}
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "Component[0]: Must be an object") {
			t.Errorf("Expected object error, got %v", res.Errors)
		}
	})

	t.Run("MissingFieldsReportTwice", func(t *testing.T) {
		// A missing componentId fires both the missing-field error and the
		// non-empty-string error.
		doc := validOrderDoc()
		delete(firstComponent(doc), "componentId")
		res := Validate(doc)
		if res.Valid {
			t.Fatal("Expected invalid")
		}
		if !hasError(res.Errors, "Component[0]: Missing required field 'componentId'") {
			t.Errorf("Expected missing-field error, got %v", res.Errors)
		}
		if !hasError(res.Errors, "Component[0]: componentId must be a non-empty string") {
			t.Errorf("Expected non-empty-string error, got %v", res.Errors)
		}
	})

	t.Run("MissingModelPath", func(t *testing.T) {
		doc := validOrderDoc()
		delete(firstComponent(doc), "fusionModelPath")
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "Missing required field 'fusionModelPath'") {
			t.Errorf("Expected missing-field error, got %v", res.Errors)
		}
	})

	t.Run("MissingParameters", func(t *testing.T) {
		doc := validOrderDoc()
		delete(firstComponent(doc), "parameters")
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "Missing required field 'parameters'") {
			t.Errorf("Expected missing-field error, got %v", res.Errors)
		}
	})

	t.Run("EmptyStrings", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["componentId"] = ""
		firstComponent(doc)["fusionModelPath"] = ""
		res := Validate(doc)
		if !hasError(res.Errors, "componentId must be a non-empty string") {
			t.Errorf("Expected componentId error, got %v", res.Errors)
		}
		if !hasError(res.Errors, "fusionModelPath must be a non-empty string") {
			t.Errorf("Expected fusionModelPath error, got %v", res.Errors)
		}
	})
}

func TestValidateParameterValues(t *testing.T) {
	set := func(params map[string]any) ValidationResult {
		doc := validOrderDoc()
		firstComponent(doc)["parameters"] = params
		return Validate(doc)
	}

	t.Run("Strings", func(t *testing.T) {
		res := set(map[string]any{"height": "96 in", "width": "36.5 in", "expr": "height * 2"})
		if !res.Valid {
			t.Errorf("String values should be valid, got %v", res.Errors)
		}
	})

	t.Run("Numbers", func(t *testing.T) {
		res := set(map[string]any{"height": 96.0, "width": 36.5, "count": 5})
		if !res.Valid {
			t.Errorf("Numeric values should be valid, got %v", res.Errors)
		}
	})

	t.Run("NotObject", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["parameters"] = []any{}
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "parameters must be an object") {
			t.Errorf("Expected object error, got %v", res.Errors)
		}
	})

	t.Run("Null", func(t *testing.T) {
		res := set(map[string]any{"invalid": nil})
		if res.Valid || !hasError(res.Errors, "Component[0].parameters.invalid: Invalid value type") {
			t.Errorf("Expected value type error, got %v", res.Errors)
		}
	})

	t.Run("Boolean", func(t *testing.T) {
		res := set(map[string]any{"door_open": true})
		if res.Valid || !hasError(res.Errors, "Invalid value type") {
			t.Errorf("Booleans are not valid parameter values, got %v", res.Errors)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		res := set(map[string]any{"nested": map[string]any{"a": 1}})
		if res.Valid || !hasError(res.Errors, "Invalid value type") {
			t.Errorf("Expected value type error, got %v", res.Errors)
		}
	})

	t.Run("EmptyName", func(t *testing.T) {
		res := set(map[string]any{"": "96 in"})
		if res.Valid || !hasError(res.Errors, "Component[0].parameters: Invalid parameter name") {
			t.Errorf("Expected parameter name error, got %v", res.Errors)
		}
	})

	t.Run("SortedErrorOrder", func(t *testing.T) {
		res := set(map[string]any{"zeta": nil, "alpha": nil, "mid": nil})
		want := []string{
			"Component[0].parameters.alpha: Invalid value type (must be number, string, or integer)",
			"Component[0].parameters.mid: Invalid value type (must be number, string, or integer)",
			"Component[0].parameters.zeta: Invalid value type (must be number, string, or integer)",
		}
		if !reflect.DeepEqual(res.Errors, want) {
			t.Errorf("Expected sorted errors %v, got %v", want, res.Errors)
		}
	})
}

func TestValidateOptionalFields(t *testing.T) {
	t.Run("SetupNames", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["setupNames"] = []any{"Setup1", "Setup2"}
		if res := Validate(doc); !res.Valid {
			t.Errorf("setupNames should be valid, got %v", res.Errors)
		}
	})

	t.Run("SetupNamesEmpty", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["setupNames"] = []any{}
		if res := Validate(doc); !res.Valid {
			t.Errorf("Empty setupNames should be valid, got %v", res.Errors)
		}
	})

	t.Run("SetupNamesNotArray", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["setupNames"] = "Setup1"
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "setupNames must be an array") {
			t.Errorf("Expected array error, got %v", res.Errors)
		}
	})

	t.Run("SetupNamesNonString", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["setupNames"] = []any{1.0, 2.0, 3.0}
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "All setupNames must be strings") {
			t.Errorf("Expected string error, got %v", res.Errors)
		}
	})

	t.Run("PostProcessorConfig", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["postProcessorConfig"] = map[string]any{
			"postProcessorName": "fanuc",
			"outputFileName":    "output",
		}
		if res := Validate(doc); !res.Valid {
			t.Errorf("postProcessorConfig should be valid, got %v", res.Errors)
		}
	})

	t.Run("PostProcessorConfigNotObject", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["postProcessorConfig"] = "fanuc"
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "postProcessorConfig must be an object") {
			t.Errorf("Expected object error, got %v", res.Errors)
		}
	})

	t.Run("Metadata", func(t *testing.T) {
		doc := validOrderDoc()
		firstComponent(doc)["metadata"] = map[string]any{
			"customer":    "Test Customer",
			"notes":       "Rush job",
			"customField": 123,
		}
		if res := Validate(doc); !res.Valid {
			t.Errorf("Metadata is unvalidated, got %v", res.Errors)
		}
	})
}

func TestValidateOutputConfig(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		doc := validOrderDoc()
		doc["outputConfig"] = map[string]any{
			"baseDirectory":    "/var/nc_output",
			"includeTimestamp": true,
		}
		if res := Validate(doc); !res.Valid {
			t.Errorf("Expected valid, got %v", res.Errors)
		}
	})

	t.Run("Partial", func(t *testing.T) {
		doc := validOrderDoc()
		doc["outputConfig"] = map[string]any{"baseDirectory": "/var/nc_output"}
		if res := Validate(doc); !res.Valid {
			t.Errorf("Expected valid, got %v", res.Errors)
		}
	})

	t.Run("NotObject", func(t *testing.T) {
		doc := validOrderDoc()
		doc["outputConfig"] = "out"
		res := Validate(doc)
		if res.Valid || !hasError(res.Errors, "outputConfig must be an object") {
			t.Errorf("Expected object error, got %v", res.Errors)
		}
	})

	t.Run("BadTypes", func(t *testing.T) {
		doc := validOrderDoc()
		doc["outputConfig"] = map[string]any{
			"baseDirectory":    42.0,
			"includeTimestamp": "true",
		}
		res := Validate(doc)
		if !hasError(res.Errors, "outputConfig.baseDirectory must be a string") {
			t.Errorf("Expected baseDirectory error, got %v", res.Errors)
		}
		if !hasError(res.Errors, "outputConfig.includeTimestamp must be a boolean") {
			t.Errorf("Expected includeTimestamp error, got %v", res.Errors)
		}
	})
}

func TestValidateIsIdempotent(t *testing.T) {
	doc := validOrderDoc()
	firstComponent(doc)["parameters"] = map[string]any{"b": nil, "a": nil}
	doc["orderId"] = ""

	first := Validate(doc)
	second := Validate(doc)
	if !reflect.DeepEqual(first.Errors, second.Errors) {
		t.Errorf("Re-validation changed error order:\n  first:  %v\n  second: %v", first.Errors, second.Errors)
	}
}

func TestValidateFile(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		res := ValidateFile("/nonexistent/order.json")
		if res.Valid || !hasError(res.Errors, "Order file not found") {
			t.Errorf("Expected not-found error, got %v", res.Errors)
		}
	})

	t.Run("InvalidSyntax", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{invalid json"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		res := ValidateFile(path)
		if res.Valid || !hasError(res.Errors, "Invalid JSON syntax") {
			t.Errorf("Expected syntax error, got %v", res.Errors)
		}
	})

	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "order.json")
		content := `{
			"version": "1.0.0",
			"orderId": "FILE-001",
			"components": [
				{
					"componentId": "comp-001",
					"fusionModelPath": "test.f3d",
					"parameters": {"height": "96 in", "count": 2}
				}
			]
		}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		res := ValidateFile(path)
		if !res.Valid {
			t.Errorf("Expected valid file, got %v", res.Errors)
		}
	})
}
