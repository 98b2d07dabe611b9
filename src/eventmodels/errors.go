package eventmodels

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrExecutionNotFound      = errors.New("execution not found")
	ErrInstrumentNotFound     = errors.New("instrument not found")
	ErrInstrumentLookupFailed = errors.New("instrument lookup failed")
	ErrGatewayCallFailed      = errors.New("gateway call failed")
	ErrNotAuthenticated       = errors.New("brokerage session not authenticated")
	ErrExecutedIsTerminal     = errors.New("executed flag cannot be cleared")
)

// GatewayError wraps a failed brokerage call with the operation that failed.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGatewayCallFailed
}

func NewGatewayError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Err: err}
}
