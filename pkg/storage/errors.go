package storage

import (
	"errors"

	"github.com/caiolrosa/req/pkg/templating"
)

var (
	// ErrNotFound is returned when a project, template or variable has no backing file.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a create, rename or move target is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedDocument is returned when stored or edited JSON does not match its schema.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidName is returned for names that are empty or not path safe.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidVariableValue is returned for null, object or array variable values.
	ErrInvalidVariableValue = templating.ErrInvalidValue

	// ErrNoSelection is returned when an operation needs a selected variable.
	ErrNoSelection = errors.New("no variable selected")

	// ErrOutOfBounds is returned when selecting a variable by an index that does not exist.
	ErrOutOfBounds = errors.New("index out of bounds")
)
