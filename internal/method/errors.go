package method

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoApplicableMethod = errors.New("no applicable method")
	ErrAmbiguousCall      = errors.New("ambiguous call")
	ErrNextExhausted      = errors.New("no next method")
	ErrArity              = errors.New("wrong number of arguments")
	ErrNotInstance        = errors.New("argument does not take part in dispatch")
	ErrArgumentClass      = errors.New("argument class is not covered by the parameter class")
	ErrSignature          = errors.New("invalid signature")
	ErrNotInitialized     = errors.New("dispatch table not built")
)

// DispatchError reports a failed call. Classes holds the classes of the
// virtual arguments when they are known.
type DispatchError struct {
	Method  string
	Classes []string
	Err     error
}

func (e *DispatchError) Error() string {
	if len(e.Classes) == 0 {
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("%s(%s): %v", e.Method, strings.Join(e.Classes, ", "), e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
