// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ahp

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Cell is one raw matrix entry as sent by a client: "3", "1/3", "0.25" or a
// bare JSON number.
type Cell string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("matrix cell must be a string or a number")
	}
	*c = Cell(n.String())
	return nil
}

// Value parses the cell, including "a/b" fractions.
func (c Cell) Value() (float64, error) {
	s := strings.TrimSpace(string(c))
	if s == "" {
		return 0, errors.New("empty value")
	}

	num, den, isFraction := strings.Cut(s, "/")
	if !isFraction {
		return strconv.ParseFloat(s, 64)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, errors.New("zero denominator")
	}
	return n / d, nil
}

// Matrix is a square pairwise comparison matrix of positive reals.
type Matrix [][]float64

// Size returns the number of rows.
func (m Matrix) Size() int { return len(m) }

// validate checks squareness and strict positivity.
func (m Matrix) validate() error {
	n := len(m)
	if n == 0 {
		return &MatrixFormatError{Row: -1, Reason: "matrix is empty"}
	}
	for i, row := range m {
		if len(row) != n {
			return &MatrixFormatError{Row: -1, Reason: "matrix is not square"}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &MatrixFormatError{Row: i, Col: j, Reason: "value is not finite"}
			}
			if v <= 0 {
				return &MatrixFormatError{Row: i, Col: j, Reason: "value must be positive"}
			}
		}
	}
	return nil
}

// ParseMatrix converts raw cells into a validated Matrix.
func ParseMatrix(cells [][]Cell) (Matrix, error) {
	m := make(Matrix, len(cells))
	for i, row := range cells {
		m[i] = make([]float64, len(row))
		for j, c := range row {
			v, err := c.Value()
			if err != nil {
				return nil, &MatrixFormatError{Row: i, Col: j, Reason: "cannot parse " + strconv.Quote(string(c))}
			}
			m[i][j] = v
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
