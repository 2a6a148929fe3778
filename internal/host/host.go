// Package host defines the capability surface campipe needs from a CAD/CAM
// host: opening model documents, reading and writing user parameters,
// regenerating toolpaths, and post processing setups into NC programs.
// Production integrations adapt a live host behind these interfaces;
// internal/host/sim provides a file-backed implementation used by the CLI's
// simulation mode and by tests.
package host

import "context"

// DocumentSource opens model documents and tracks which are already open.
type DocumentSource interface {
	// OpenDocuments returns the documents currently open in the host,
	// in opening order.
	OpenDocuments() []Document
	// Open loads the document at path. Implementations return fault-coded
	// errors (DocumentNotFound, DocumentOpenFailed).
	Open(path string) (Document, error)
}

// Document is one open model document.
type Document interface {
	Name() string
	// Design returns the parametric design product, or a DesignUnavailable
	// fault when the document has no design data.
	Design() (ParameterStore, error)
	// Cam returns the manufacturing product, or a CamUnavailable fault when
	// the document has no CAM data.
	Cam() (CamContext, error)
}

// ParameterStore exposes a design's user parameters.
type ParameterStore interface {
	// Names returns all parameter names in definition order.
	Names() []string
	Get(name string) (Parameter, bool)
}

// Parameter is a single named user parameter.
type Parameter interface {
	Name() string
	// Expression is the authored value with units, e.g. "96 in".
	Expression() string
	SetExpression(expr string) error
	// Value is the evaluated numeric value in the document's unit system.
	Value() float64
	Unit() string
	Comment() string
}

// ToolpathGenerator triggers toolpath regeneration for the whole CAM
// product. Hosts regenerate engine-wide; per-setup generation is not part
// of the contract.
type ToolpathGenerator interface {
	Generate(ctx context.Context) error
}

// PostProcessEngine turns one setup's toolpaths into an NC program file.
type PostProcessEngine interface {
	PostProcess(ctx context.Context, req PostRequest) error
}

// CamContext is a document's manufacturing product: its setups plus the
// regeneration and post processing engines bound to them.
type CamContext interface {
	// Setups returns all setups in document order.
	Setups() []Setup
	ToolpathGenerator
	PostProcessEngine
}

// Setup is one CAM setup and its operations.
type Setup interface {
	Name() string
	Operations() []Operation
}

// Operation reports the state of a single CAM operation after the most
// recent generation pass.
type Operation interface {
	Name() string
	IsSuppressed() bool
	HasToolpath() bool
	// Error returns the operation's error text, empty when healthy.
	Error() string
	// Warning returns the operation's warning text, empty when none.
	Warning() string
}

// PostRequest carries everything a PostProcessEngine needs to emit one
// setup. The engine writes <ProgramName>.nc inside OutputDir.
type PostRequest struct {
	Setup       Setup
	ProgramName string
	OutputDir   string
	// PostConfig names the post processor configuration, e.g. "richauto.cps".
	PostConfig string
	// Options carries the component's opaque postProcessorConfig block.
	Options map[string]any
}
