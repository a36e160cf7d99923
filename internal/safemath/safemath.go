// Package safemath provides overflow-checked unsigned arithmetic for
// token quantity calculations. Every supply mutation in the tokenizer
// routes its math through this package.
package safemath

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a result would exceed the maximum
// representable uint64 quantity.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrDivisionByZero is returned when dividing by zero.
var ErrDivisionByZero = errors.New("division by zero")

// Mul returns a*b, or ErrOverflow if the product does not fit in uint64.
// Zero operands always succeed with result 0.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Add returns a+b, or ErrOverflow if the sum does not fit in uint64.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Div returns a/b truncated toward zero, or ErrDivisionByZero if b == 0.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}
