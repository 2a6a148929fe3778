// Package fault defines the typed failure values returned across layer
// boundaries. Collaborator calls return a Fault instead of panicking or
// leaking raw errors; callers match on the code with errors.As via CodeOf.
package fault

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy bucket a failure belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	// SchemaViolation: the order document is structurally unsound. Never
	// reported after side effects have begun.
	SchemaViolation
	// ResourceUnavailable: a file, model or document could not be found or
	// read.
	ResourceUnavailable
	// ExternalOperationFailed: the toolpath or post-process engine reported
	// failure.
	ExternalOperationFailed
	// VerificationFailed: the engine claimed success but the expected
	// artifact is absent.
	VerificationFailed
	// PartialBatchFailure: some items in a batch failed while others
	// succeeded.
	PartialBatchFailure
	// OperationTimeout: a long-running engine call exceeded its deadline.
	OperationTimeout
)

func (k Kind) String() string {
	switch k {
	case SchemaViolation:
		return "SchemaViolation"
	case ResourceUnavailable:
		return "ResourceUnavailable"
	case ExternalOperationFailed:
		return "ExternalOperationFailed"
	case VerificationFailed:
		return "VerificationFailed"
	case PartialBatchFailure:
		return "PartialBatchFailure"
	case OperationTimeout:
		return "OperationTimeout"
	default:
		return "Unknown"
	}
}

// Code identifies the specific failure condition.
type Code string

const (
	OrderLoadFailed               Code = "OrderLoadFailed"
	OrderInvalid                  Code = "OrderInvalid"
	ComponentIncomplete           Code = "ComponentIncomplete"
	DocumentNotFound              Code = "DocumentNotFound"
	DocumentOpenFailed            Code = "DocumentOpenFailed"
	DesignUnavailable             Code = "DesignUnavailable"
	CamUnavailable                Code = "CamUnavailable"
	SetupNotFound                 Code = "SetupNotFound"
	ParameterBatchFailed          Code = "ParameterBatchFailed"
	RegenerateFailed              Code = "RegenerateFailed"
	GenerateTimeout               Code = "GenerateTimeout"
	NoValidToolpath               Code = "NoValidToolpath"
	PostProcessFailed             Code = "PostProcessFailed"
	PostProcessVerificationFailed Code = "PostProcessVerificationFailed"
)

// kinds maps each code to its taxonomy bucket.
var kinds = map[Code]Kind{
	OrderLoadFailed:               ResourceUnavailable,
	OrderInvalid:                  SchemaViolation,
	ComponentIncomplete:           SchemaViolation,
	DocumentNotFound:              ResourceUnavailable,
	DocumentOpenFailed:            ResourceUnavailable,
	DesignUnavailable:             ResourceUnavailable,
	CamUnavailable:                ResourceUnavailable,
	SetupNotFound:                 ResourceUnavailable,
	ParameterBatchFailed:          PartialBatchFailure,
	RegenerateFailed:              ExternalOperationFailed,
	GenerateTimeout:               OperationTimeout,
	NoValidToolpath:               ExternalOperationFailed,
	PostProcessFailed:             ExternalOperationFailed,
	PostProcessVerificationFailed: VerificationFailed,
}

// Fault is a structured failure: a condition code, its taxonomy kind, a
// human-readable message, and the underlying error when one exists.
type Fault struct {
	Code    Code
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Unwrap exposes the underlying error to errors.Is/As chains.
func (f *Fault) Unwrap() error {
	return f.Err
}

// New builds a Fault for the given code.
func New(code Code, format string, args ...any) *Fault {
	return &Fault{
		Code:    code,
		Kind:    kinds[code],
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds a Fault carrying an underlying error.
func Wrap(code Code, err error, format string, args ...any) *Fault {
	return &Fault{
		Code:    code,
		Kind:    kinds[code],
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// CodeOf returns the fault code carried by err, or "" when err is not a
// Fault.
func CodeOf(err error) Code {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return ""
}

// KindOf returns the taxonomy kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// MessageOf returns the human-readable message carried by err, falling back
// to the error text for non-Fault errors. Callers use it to surface a fault
// in user-facing output without the code prefix.
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Is reports whether err carries the given fault code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
