// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ahp

import "fmt"

// MatrixFormatError reports a matrix that is empty, not square, or holds an
// entry that is not a positive finite number.
type MatrixFormatError struct {
	Matrix string // "criteria", "alternatives[2]", or empty when unknown
	Row    int    // -1 when the problem is not tied to a cell
	Col    int
	Reason string
}

func (e *MatrixFormatError) Error() string {
	where := e.Matrix
	if where == "" {
		where = "matrix"
	}
	if e.Row >= 0 {
		return fmt.Sprintf("%s[%d][%d]: %s", where, e.Row, e.Col, e.Reason)
	}
	return fmt.Sprintf("%s: %s", where, e.Reason)
}

// DimensionMismatchError reports inputs whose sizes do not line up, e.g. the
// number of alternative matrices differs from the number of criteria.
type DimensionMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.Field, e.Want, e.Got)
}

// ConsistencyError reports pairwise judgments too contradictory to trust.
type ConsistencyError struct {
	Matrix string
	Ratio  float64
}

func (e *ConsistencyError) Error() string {
	where := e.Matrix
	if where == "" {
		where = "matrix"
	}
	return fmt.Sprintf("%s: consistency ratio %.4f exceeds %.2f", where, e.Ratio, ConsistencyThreshold)
}

// label attaches the matrix name to format and consistency errors.
func label(err error, name string) error {
	switch e := err.(type) {
	case *MatrixFormatError:
		e.Matrix = name
	case *ConsistencyError:
		e.Matrix = name
	}
	return err
}
