package raml

import "fmt"

// ErrorCode categorizes load errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError   ErrorCode = "InputError"
	NetworkError ErrorCode = "NetworkError"
	ParseError   ErrorCode = "ParseError"
	VersionError ErrorCode = "VersionError"
)

// SpecError reports a document that could not be read or decoded. It is
// fatal for a generation run.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Path     string // YAML path inside the document, e.g. "/items/get/body"
	Cause    error
}

func (e *SpecError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Path)
	}
	return e.Message
}

func (e *SpecError) Unwrap() error { return e.Cause }

// TypeMismatchError is returned when a facade object from one version's
// factory is handed to another version's code.
type TypeMismatchError struct {
	Want Version
	Got  any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("raml: expected a RAML %s object, got %T", e.Want, e.Got)
}
