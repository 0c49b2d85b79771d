// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package vbap generates vector-base amplitude panning gain tables over
// triangulated loudspeaker layouts, with optional multiple-direction spread
// (MDAP), plus the compressed and amplitude-normalized table forms used for
// pattern interpolation.
package vbap

import "math"

// Normalization is the per-row scaling convention of a gain table.
type Normalization int

const (
	// NormEnergy keeps each row at unit sum of squares, the panning
	// convention.
	NormEnergy Normalization = iota
	// NormAmplitude keeps each row at unit sum, the interpolation
	// convention.
	NormAmplitude
)

const (
	// zeroGainEps separates genuine gains from numerical residue.
	zeroGainEps = 1e-9
)

// GainTable is a dense [numSources x numChannels] matrix of non-negative
// panning gains. Each row has at most 3 nonzero entries, the enclosing
// triangle of its source direction.
type GainTable struct {
	gains []float64
	nSrc  int
	nCh   int
	norm  Normalization
}

// NumSources returns the number of table rows (query directions).
func (t *GainTable) NumSources() int {
	return t.nSrc
}

// NumChannels returns the number of table columns (loudspeakers).
func (t *GainTable) NumChannels() int {
	return t.nCh
}

// Norm returns the table's normalization convention.
func (t *GainTable) Norm() Normalization {
	return t.norm
}

// Row returns the gain row of source i. The slice aliases table storage.
func (t *GainTable) Row(i int) []float64 {
	if i < 0 || i >= t.nSrc {
		panic("Row: index out of range")
	}
	return t.gains[i*t.nCh : (i+1)*t.nCh]
}

// Gain returns the gain of source i on channel j.
func (t *GainTable) Gain(i, j int) float64 {
	if j < 0 || j >= t.nCh {
		panic("Gain: channel index out of range")
	}
	return t.Row(i)[j]
}

// ToAmplitudeNorm rescales every row in place to unit sum, converting the
// table from the power-preserving panning convention to the
// amplitude-preserving interpolation convention.
func (t *GainTable) ToAmplitudeNorm() {
	for i := 0; i < t.nSrc; i++ {
		row := t.Row(i)
		sum := 0.0
		for _, g := range row {
			sum += g
		}
		if sum < zeroGainEps {
			continue
		}
		for j := range row {
			row[j] /= sum
		}
	}
	t.norm = NormAmplitude
}

// CompressedTable is the sparse form of a gain table: per source, exactly 3
// zero-padded (gain, channel-index) pairs, amplitude-normalized.
type CompressedTable struct {
	Gains   [][3]float64
	Indices [][3]int
}

// Compress extracts the nonzero (gain, index) pairs of every row,
// renormalized to unit sum. Rows keep their 3 largest gains; given the
// generator's triangle invariant there are never more than 3.
func (t *GainTable) Compress() *CompressedTable {
	ct := &CompressedTable{
		Gains:   make([][3]float64, t.nSrc),
		Indices: make([][3]int, t.nSrc),
	}
	for i := 0; i < t.nSrc; i++ {
		row := t.Row(i)
		var (
			sum float64
			n   int
		)
		for j, g := range row {
			if g <= zeroGainEps {
				continue
			}
			if n < 3 {
				ct.Gains[i][n] = g
				ct.Indices[i][n] = j
				n++
				sum += g
				continue
			}
			// Defensive: more than 3 survivors, keep the largest.
			minPos := 0
			for k := 1; k < 3; k++ {
				if ct.Gains[i][k] < ct.Gains[i][minPos] {
					minPos = k
				}
			}
			if g > ct.Gains[i][minPos] {
				sum += g - ct.Gains[i][minPos]
				ct.Gains[i][minPos] = g
				ct.Indices[i][minPos] = j
			}
		}
		if sum < zeroGainEps {
			continue
		}
		for k := 0; k < n; k++ {
			ct.Gains[i][k] /= sum
		}
	}
	return ct
}

// rmsNormalize rescales gains to unit sum of squares in place.
func rmsNormalize(gains []float64) {
	ss := 0.0
	for _, g := range gains {
		ss += g * g
	}
	if ss < zeroGainEps*zeroGainEps {
		return
	}
	inv := 1 / math.Sqrt(ss)
	for i := range gains {
		gains[i] *= inv
	}
}
