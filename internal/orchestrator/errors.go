package orchestrator

import "errors"

// ErrInvalidParams indicates run parameters that fail validation.
var ErrInvalidParams = errors.New("invalid run parameters")

// ErrTargetNotFound indicates the destination does not exist or is not of
// the requested kind.
var ErrTargetNotFound = errors.New("import target not found")
