package engine

import "errors"

// ErrUnsupported is the control-flow signal raised by a dispatch fallback
// when no registered handler matches. Callers inside the engine treat it
// as "try the next strategy"; it only surfaces to the user when no
// strategy at any level succeeds.
var ErrUnsupported = errors.New("engine: operation not supported")

// ErrAmbiguousBinding is returned by ComputeOne when the expression does
// not have exactly one free symbol to bind the value to.
var ErrAmbiguousBinding = errors.New("engine: ambiguous binding")
