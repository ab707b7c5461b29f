// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ahp implements the Analytic Hierarchy Process scoring engine.

# Pairwise Matrices

A pairwise comparison matrix holds, at (i, j), how strongly item i is
preferred over item j on a ratio scale (usually 1/9 .. 9). Cells arrive from
clients as strings or numbers and may be fractions:

	m, err := ahp.ParseMatrix([][]ahp.Cell{{"1", "3"}, {"1/3", "1"}})

# Weights and Consistency

ComputeWeights returns the principal eigenvector of the matrix normalised to
sum to 1, plus Saaty's consistency ratio:

	weights, cr, err := ahp.ComputeWeights(m) // weights ≈ [0.75 0.25], cr = 0

Matrices whose consistency ratio exceeds ConsistencyThreshold (0.1) fail with
a *ConsistencyError carrying the ratio.

# Priority Vector

CalculatePriorityVector combines one criteria matrix (C×C) with C alternative
matrices (A×A each):

	pv, err := ahp.CalculatePriorityVector(criteria, alternatives)
	best := ahp.BestChoiceIndex(pv)

Analyze wraps parsing, validation against the alternative names and the
computation in a single call for request handlers.

All functions are pure and safe for concurrent use.
*/
package ahp
