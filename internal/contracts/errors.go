package contracts

import (
	"errors"
	"fmt"
)

// ⭐ SSOT: 파이프라인 공통 에러는 여기서만 정의
var (
	// ErrNotFound is returned when a single requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrJoinMiss means no price observation exists on or after a reference date
	ErrJoinMiss = errors.New("no price on or after reference date")

	// ErrInvalidParameter is the root of every caller input error
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ValidationError describes one rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidParameter) match
func (e ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// IsInvalidParameter reports whether err was caused by caller input
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}
