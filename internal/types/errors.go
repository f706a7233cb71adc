package types

import "errors"

// Sentinel errors for formulary operations.
var (
	// ErrCircularDependency indicates computed variables reference each other in a cycle.
	ErrCircularDependency = errors.New("circular dependency between computed variables")

	// ErrFormulaSyntax indicates a formula could not be parsed.
	ErrFormulaSyntax = errors.New("formula syntax error")

	// ErrFormNotFound indicates a stored form definition does not exist.
	ErrFormNotFound = errors.New("form not found")

	// ErrInvalidFormID indicates a malformed form identifier.
	ErrInvalidFormID = errors.New("invalid form id")

	// ErrTooManyVariables indicates a request carries more variables than MaxVariables allows.
	ErrTooManyVariables = errors.New("too many computed variables")

	// ErrUnsupportedFormat indicates a definition file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
