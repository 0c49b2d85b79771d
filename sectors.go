// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

import (
	"fmt"

	"github.com/2dChan/s2ambi/sph"
	"github.com/2dChan/s2ambi/vbap"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/mat"
)

// measurementGridLevel subdivides the icosahedron four times, giving the
// 2562-point grid the sector patterns are fitted on.
const measurementGridLevel = 4

// numPatterns is the beam patterns per sector: one omni plus three dipoles.
const numPatterns = 4

// sectorSet holds the beamforming coefficients of one analysis order:
// numPatterns x nSectors vectors of length sph.NumChannels(order), flattened
// with the harmonic index fastest. Coefficients are real-valued but stored
// complex for the multiply-accumulate against time-frequency signals.
type sectorSet struct {
	order    int
	nSectors int
	nSH      int
	coeffs   []complex128
}

// coeff returns the coefficient of pattern p, sector s, harmonic sh.
func (ss *sectorSet) coeff(p, s, sh int) complex128 {
	return ss.coeffs[(p*ss.nSectors+s)*ss.nSH+sh]
}

// buildSectorSet derives the sector coefficients for one order: spherical-cap
// sector weights come from an amplitude-normalized panning gain table over
// the measurement grid (sector directions acting as the loudspeakers), each
// sector weight is applied to the four first-order patterns sampled on the
// grid, and the weighted patterns are regressed onto the order's full
// spherical-harmonic basis in the least-squares sense.
func buildSectorSet(order, nSectors int, grid s2.PointVector) (*sectorSet, error) {
	secDirs := sph.FibonacciGrid(nSectors)
	gt, err := vbap.NewGainTable(grid, secDirs, vbap.WithoutPoleDummies())
	if err != nil {
		return nil, fmt.Errorf("s2ambi: sector gain table for order %d: %w", order, err)
	}
	gt.ToAmplitudeNorm()

	basis, err := sph.RealSH(order, grid)
	if err != nil {
		return nil, err
	}
	patterns, err := sph.RealSH(1, grid)
	if err != nil {
		return nil, err
	}

	nGrid := len(grid)
	weighted := mat.NewDense(nGrid, nSectors*numPatterns, nil)
	for s := 0; s < nSectors; s++ {
		for p := 0; p < numPatterns; p++ {
			for g := 0; g < nGrid; g++ {
				weighted.Set(g, s*numPatterns+p, gt.Gain(g, s)*patterns.At(p, g))
			}
		}
	}

	// Least-squares fit against the transposed basis; the minimum-norm
	// solution is the Moore-Penrose one.
	var sol mat.Dense
	if err := sol.Solve(basis.T(), weighted); err != nil {
		return nil, fmt.Errorf("s2ambi: sector coefficient regression for order %d: %w", order, err)
	}

	nSH := sph.NumChannels(order)
	ss := &sectorSet{
		order:    order,
		nSectors: nSectors,
		nSH:      nSH,
		coeffs:   make([]complex128, numPatterns*nSectors*nSH),
	}
	for p := 0; p < numPatterns; p++ {
		for s := 0; s < nSectors; s++ {
			for sh := 0; sh < nSH; sh++ {
				ss.coeffs[(p*nSectors+s)*nSH+sh] = complex(sol.At(sh, s*numPatterns+p), 0)
			}
		}
	}
	return ss, nil
}
