package assignment

import "errors"

var (
	ErrInvalidShape     = errors.New("assignment: invalid matrix shape")
	ErrRaggedMatrix     = errors.New("assignment: rows have different lengths")
	ErrInvalidCell      = errors.New("assignment: cell value must be 0 or 1")
	ErrShapeMismatch    = errors.New("assignment: matrix shape does not match reference tables")
	ErrPreferenceWidth  = errors.New("assignment: ta preference count does not match section count")
	ErrArity            = errors.New("assignment: wrong number of parent matrices")
	ErrUnknownAgent     = errors.New("assignment: unknown agent")
	ErrUnknownObjective = errors.New("assignment: unknown objective")
	ErrMutationRate     = errors.New("assignment: mutation rate must be within [0, 1]")
)
