// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package sph provides real spherical-harmonic bases, spherical sampling grids
// and channel-convention conversions for Ambisonic signals.
package sph

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/mat"
)

// NumChannels returns the number of spherical-harmonic channels for an
// analysis order, (order+1)^2.
func NumChannels(order int) int {
	return (order + 1) * (order + 1)
}

// RealSH samples the real spherical harmonics up to the given order at each
// direction, in ACN channel ordering with N3D (orthonormal) scaling and
// without the Condon-Shortley phase. The result has NumChannels(order) rows
// and len(dirs) columns; row l*(l+1)+m holds Y_{l,m}.
func RealSH(order int, dirs s2.PointVector) (*mat.Dense, error) {
	if order < 0 {
		return nil, fmt.Errorf("sph: RealSH order = %d, want >= 0", order)
	}
	nSH := NumChannels(order)
	y := mat.NewDense(nSH, len(dirs), nil)
	col := make([]float64, nSH)
	for j, p := range dirs {
		RealSHVec(order, p, col)
		for i := 0; i < nSH; i++ {
			y.Set(i, j, col[i])
		}
	}
	return y, nil
}

// RealSHVec samples the real spherical harmonics up to the given order at a
// single direction into dst, which must have length NumChannels(order).
// Ordering and scaling match RealSH.
func RealSHVec(order int, p s2.Point, dst []float64) {
	nSH := NumChannels(order)
	if len(dst) != nSH {
		panic("RealSHVec: dst length does not match NumChannels(order)")
	}

	// cosTheta is the cosine of the colatitude, sinTheta its sine; phi is
	// the azimuth angle measured from +x towards +y.
	cosTheta := p.Z
	sinTheta := math.Hypot(p.X, p.Y)
	phi := math.Atan2(p.Y, p.X)

	// Associated Legendre values P_l^m(cosTheta) without Condon-Shortley
	// phase, computed by the standard three-term recurrences.
	plm := assocLegendreAll(order, cosTheta, sinTheta)

	for l := 0; l <= order; l++ {
		for m := -l; m <= l; m++ {
			am := m
			if am < 0 {
				am = -am
			}
			n := n3dNorm(l, am)
			var trig float64
			switch {
			case m > 0:
				trig = math.Cos(float64(m) * phi)
			case m < 0:
				trig = math.Sin(float64(am) * phi)
			default:
				trig = 1
			}
			dst[l*(l+1)+m] = n * plm[legIdx(l, am)] * trig
		}
	}
}

// legIdx indexes the packed lower-triangular (l, m>=0) Legendre table.
func legIdx(l, m int) int {
	return l*(l+1)/2 + m
}

func assocLegendreAll(order int, x, sx float64) []float64 {
	p := make([]float64, legIdx(order, order)+1)
	p[0] = 1
	// Diagonal: P_m^m = (2m-1)!! * sx^m.
	for m := 1; m <= order; m++ {
		p[legIdx(m, m)] = p[legIdx(m-1, m-1)] * float64(2*m-1) * sx
	}
	// First off-diagonal: P_{m+1}^m = (2m+1) * x * P_m^m.
	for m := 0; m < order; m++ {
		p[legIdx(m+1, m)] = float64(2*m+1) * x * p[legIdx(m, m)]
	}
	// Upward in l: (l-m) P_l^m = (2l-1) x P_{l-1}^m - (l+m-1) P_{l-2}^m.
	for m := 0; m <= order; m++ {
		for l := m + 2; l <= order; l++ {
			p[legIdx(l, m)] = (float64(2*l-1)*x*p[legIdx(l-1, m)] -
				float64(l+m-1)*p[legIdx(l-2, m)]) / float64(l-m)
		}
	}
	return p
}

// n3dNorm returns the N3D normalization factor for degree l and |m|.
func n3dNorm(l, m int) float64 {
	n := float64(2*l+1) * factRatio(l-m, l+m)
	if m != 0 {
		n *= 2
	}
	return math.Sqrt(n)
}

// factRatio returns a! / b! for a <= b.
func factRatio(a, b int) float64 {
	r := 1.0
	for k := a + 1; k <= b; k++ {
		r /= float64(k)
	}
	return r
}
