// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ahp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ConsistencyThreshold is the largest acceptable consistency ratio.
const ConsistencyThreshold = 0.1

// randomIndex holds Saaty's random consistency index keyed by matrix size.
var randomIndex = []float64{
	0, // unused
	0, 0, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49,
	1.51, 1.48, 1.56, 1.57, 1.59,
}

// RandomIndex returns the random index for an n×n matrix.
func RandomIndex(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n >= len(randomIndex) {
		return randomIndex[len(randomIndex)-1]
	}
	return randomIndex[n]
}

// ComputeWeights returns the normalised principal eigenvector of m and its
// consistency ratio. A ratio above ConsistencyThreshold yields a
// *ConsistencyError.
func ComputeWeights(m Matrix) ([]float64, float64, error) {
	if err := m.validate(); err != nil {
		return nil, 0, err
	}

	n := m.Size()
	if n == 1 {
		return []float64{1}, 0, nil
	}

	weights, lambdaMax, err := principalEigen(m)
	if err != nil {
		return nil, 0, err
	}

	cr := consistencyRatio(lambdaMax, n)
	if cr > ConsistencyThreshold {
		return nil, cr, &ConsistencyError{Ratio: cr}
	}
	return weights, cr, nil
}

// consistencyRatio computes CI/RI, clamped at zero. Sizes with a zero random
// index (n <= 2) are always consistent.
func consistencyRatio(lambdaMax float64, n int) float64 {
	ri := RandomIndex(n)
	if n <= 2 || ri == 0 {
		return 0
	}
	ci := (lambdaMax - float64(n)) / float64(n-1)
	return math.Max(0, ci/ri)
}

func principalEigen(m Matrix) ([]float64, float64, error) {
	n := m.Size()
	a := mat.NewDense(n, n, nil)
	for i, row := range m {
		a.SetRow(i, row)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, 0, errors.New("ahp: eigen decomposition failed")
	}

	values := eig.Values(nil)
	k := 0
	for i := range values {
		if real(values[i]) > real(values[k]) {
			k = i
		}
	}

	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	w := make([]float64, n)
	for i := range w {
		w[i] = real(vectors.At(i, k))
	}
	if err := normalize(w); err != nil {
		return nil, 0, err
	}

	// Rounding can leave entries a hair below zero.
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
	}
	if err := normalize(w); err != nil {
		return nil, 0, err
	}

	return w, real(values[k]), nil
}

func normalize(w []float64) error {
	sum := floats.Sum(w)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return errors.New("ahp: degenerate eigenvector")
	}
	floats.Scale(1/sum, w)
	return nil
}

// CalculatePriorityVector computes the composite score of each alternative:
// the A×C matrix of local weights multiplied by the C criteria weights.
func CalculatePriorityVector(criteria Matrix, alternatives []Matrix) ([]float64, error) {
	criteriaWeights, _, err := ComputeWeights(criteria)
	if err != nil {
		return nil, label(err, "criteria")
	}

	c := criteria.Size()
	if len(alternatives) != c {
		return nil, &DimensionMismatchError{Field: "alternative_matrices", Want: c, Got: len(alternatives)}
	}

	a := alternatives[0].Size()
	local := mat.NewDense(a, c, nil)
	for j, m := range alternatives {
		name := fmt.Sprintf("alternatives[%d]", j)
		if m.Size() != a {
			return nil, &DimensionMismatchError{Field: name, Want: a, Got: m.Size()}
		}
		w, _, err := ComputeWeights(m)
		if err != nil {
			return nil, label(err, name)
		}
		local.SetCol(j, w)
	}

	var pv mat.VecDense
	pv.MulVec(local, mat.NewVecDense(c, criteriaWeights))

	out := make([]float64, a)
	for i := range out {
		out[i] = pv.AtVec(i)
	}
	return out, nil
}

// BestChoiceIndex returns the index of the highest score, preferring the
// lowest index on ties, or -1 for an empty vector.
func BestChoiceIndex(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}

// Result is the outcome of Analyze.
type Result struct {
	PriorityVector []float64
	BestIndex      int
	BestName       string
}

// Analyze parses raw matrices, checks them against the alternative names and
// computes the priority vector.
func Analyze(criteria [][]Cell, alternatives [][][]Cell, names []string) (Result, error) {
	cm, err := ParseMatrix(criteria)
	if err != nil {
		return Result{}, label(err, "criteria")
	}

	if len(alternatives) != cm.Size() {
		return Result{}, &DimensionMismatchError{Field: "alternative_matrices", Want: cm.Size(), Got: len(alternatives)}
	}

	ams := make([]Matrix, len(alternatives))
	for i, cells := range alternatives {
		m, err := ParseMatrix(cells)
		if err != nil {
			return Result{}, label(err, fmt.Sprintf("alternatives[%d]", i))
		}
		ams[i] = m
	}

	if want := ams[0].Size(); len(names) != want {
		return Result{}, &DimensionMismatchError{Field: "alternative_names", Want: want, Got: len(names)}
	}

	pv, err := CalculatePriorityVector(cm, ams)
	if err != nil {
		return Result{}, err
	}

	best := BestChoiceIndex(pv)
	return Result{
		PriorityVector: pv,
		BestIndex:      best,
		BestName:       names[best],
	}, nil
}
