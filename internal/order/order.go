package order

import (
	"encoding/json"
	"fmt"
	"os"

	"campipe/internal/fault"
)

// Order is a manufacturing order document after validation. Components keep
// their document order; processing walks them strictly in sequence.
type Order struct {
	Version      string        `json:"version"`
	OrderID      string        `json:"orderId"`
	Timestamp    string        `json:"timestamp,omitempty"`
	Components   []Component   `json:"components"`
	OutputConfig *OutputConfig `json:"outputConfig,omitempty"`
}

// Component describes one part to process: the model to open, the parameter
// values to apply, and optional per-component emission overrides.
type Component struct {
	ComponentID         string          `json:"componentId"`
	FusionModelPath     string          `json:"fusionModelPath"`
	Parameters          map[string]any  `json:"parameters"`
	SetupNames          []string        `json:"setupNames,omitempty"`
	PostProcessorConfig map[string]any  `json:"postProcessorConfig,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
}

// OutputConfig carries order-level overrides for where emitted programs land.
type OutputConfig struct {
	BaseDirectory    string `json:"baseDirectory,omitempty"`
	IncludeTimestamp bool   `json:"includeTimestamp,omitempty"`
}

// Load reads an order file, validates the raw document, and decodes a typed
// Order only when validation passes. The ValidationResult always carries the
// human-readable findings; the error distinguishes load problems
// (fault.OrderLoadFailed) from schema problems (fault.OrderInvalid).
func Load(path string) (*Order, ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		res := invalid(fmt.Sprintf("Order file not found: %s", path))
		return nil, res, fault.Wrap(fault.OrderLoadFailed, err, "failed to read order file %s", path)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		res := invalid(fmt.Sprintf("Invalid JSON syntax: %v", err))
		return nil, res, fault.Wrap(fault.OrderLoadFailed, err, "order file %s is not valid JSON", path)
	}

	res := Validate(raw)
	if !res.Valid {
		return nil, res, fault.New(fault.OrderInvalid, "order failed validation with %d error(s)", len(res.Errors))
	}

	var ord Order
	if err := json.Unmarshal(data, &ord); err != nil {
		return nil, res, fault.Wrap(fault.OrderLoadFailed, err, "failed to decode order file %s", path)
	}
	return &ord, res, nil
}

// SchemaVersion reads the version field of a JSON Schema document. The
// schema file is informational; validation rules live in this package.
func SchemaVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("schema file not found: %s: %w", path, err)
	}
	var schema struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return "", fmt.Errorf("invalid JSON in schema file %s: %w", path, err)
	}
	if schema.Version == "" {
		return "unknown", nil
	}
	return schema.Version, nil
}
