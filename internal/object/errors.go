package object

import (
	"errors"
	"fmt"
)

// ContractError describes a programmer error detected by the runtime.
//
// Contract errors are raised with panic, never returned. Continuing after one
// would act on undefined state, so the operation that detected it stops
// before mutating anything.
type ContractError struct {
	// Code identifies the violated precondition.
	Code ContractCode

	// Op names the operation that detected the violation (e.g. "release").
	Op string

	// Message is a human-readable description.
	Message string
}

// ContractCode categorizes contract violations.
type ContractCode string

const (
	// ErrCodeInvalidHandle indicates an absent or destroyed handle.
	ErrCodeInvalidHandle ContractCode = "INVALID_HANDLE"

	// ErrCodeCapabilityMismatch indicates a live handle without the required capability.
	ErrCodeCapabilityMismatch ContractCode = "CAPABILITY_MISMATCH"

	// ErrCodeBadAllocation indicates an unusable header passed to Init.
	ErrCodeBadAllocation ContractCode = "BAD_ALLOCATION"

	// ErrCodeNoPool indicates a pool operation with no pool open.
	ErrCodeNoPool ContractCode = "NO_POOL"

	// ErrCodeBadArgument indicates a malformed argument (missing object, negative size).
	ErrCodeBadArgument ContractCode = "BAD_ARGUMENT"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Fail panics with a *ContractError.
func Fail(code ContractCode, op, format string, args ...any) {
	panic(&ContractError{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	})
}

// IsContractError returns true if err is or wraps a *ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// CodeOf returns the contract code carried by err, or "" if err is not a
// contract error.
func CodeOf(err error) ContractCode {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Guard runs fn and converts a contract panic into a returned error.
// Any other panic is propagated unchanged.
//
// Guard does not undo work fn completed before the violation; it only stops
// the violation from unwinding past the caller.
func Guard(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ce, ok := r.(*ContractError); ok {
			err = ce
			return
		}
		panic(r)
	}()

	fn()
	return nil
}
