package nn

import (
	"errors"
	"fmt"
)

// ErrNonFinite indicates the loss, an output or a weight became NaN or Inf.
var ErrNonFinite = errors.New("non-finite value in network")

// ErrShape indicates an input or weight slice has the wrong length.
var ErrShape = errors.New("shape mismatch")

// ArchitectureError reports an unusable architecture description.
type ArchitectureError struct {
	Field  string
	Reason string
}

func (e *ArchitectureError) Error() string {
	return fmt.Sprintf("invalid architecture: %s %s", e.Field, e.Reason)
}
