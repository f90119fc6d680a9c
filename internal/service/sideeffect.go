package service

import (
	"fmt"

	"go.uber.org/zap"
)

// SideEffectError is a failed best-effort step. It never aborts the primary
// state transition; the caller logs it.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s: %v", e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a best-effort step.
type Result[T any] struct {
	Value T
	Err   *SideEffectError
}

// Ok reports whether the step succeeded
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// attempt runs a best-effort step and captures its failure instead of returning it.
func attempt[T any](op string, fn func() (T, error)) Result[T] {
	v, err := fn()
	if err != nil {
		var zero T
		return Result[T]{Value: zero, Err: &SideEffectError{Op: op, Err: err}}
	}
	return Result[T]{Value: v}
}

// attemptDo is attempt for steps without a value.
func attemptDo(op string, fn func() error) Result[struct{}] {
	return attempt(op, func() (struct{}, error) { return struct{}{}, fn() })
}

// logSideEffect пишет в лог неудавшийся побочный эффект; возвращает true при успехе
func logSideEffect[T any](logger *zap.Logger, r Result[T], fields ...zap.Field) bool {
	if r.Ok() {
		return true
	}
	logger.Warn("Best-effort side effect failed",
		append(fields, zap.String("op", r.Err.Op), zap.Error(r.Err.Err))...,
	)
	return false
}
