package model

import (
	"fmt"
	"strings"
)

// BadInstructionError reports an attribute assignment that failed to
// evaluate or apply during assembly. Path holds the key path from the model
// root down to the offending key; it grows outward as the error propagates
// through each recursion level, so the innermost cause is preserved.
type BadInstructionError struct {
	Path   []string
	Source string
	Err    error
}

func (e *BadInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction at %s = %q: %v",
		strings.Join(e.Path, "."), e.Source, e.Err)
}

func (e *BadInstructionError) Unwrap() error { return e.Err }

// prepend adds an enclosing key at the front of the path.
func (e *BadInstructionError) prepend(key string) *BadInstructionError {
	e.Path = append([]string{key}, e.Path...)
	return e
}

// NotReadyError reports an operation that requires a completed setup pass.
type NotReadyError struct {
	Operation string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s requires a prior setup of the model", e.Operation)
}
