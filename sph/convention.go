// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package sph

import (
	"fmt"
	"math"
)

// Ordering is the channel ordering convention of an incoming
// spherical-harmonic signal.
type Ordering int

const (
	// OrderingACN is the Ambisonic Channel Number ordering, l*(l+1)+m.
	OrderingACN Ordering = iota
	// OrderingFuMa is the legacy Furse-Malham WXYZ ordering, defined here
	// for first order only.
	OrderingFuMa
)

// Normalization is the per-channel scaling convention of an incoming
// spherical-harmonic signal.
type Normalization int

const (
	// NormN3D is the full (orthonormal) 3-D normalization used internally.
	NormN3D Normalization = iota
	// NormSN3D is the Schmidt semi-normalized convention.
	NormSN3D
	// NormFuMa is the MaxN convention with the -3 dB W channel, defined
	// here for first order only.
	NormFuMa
)

// N3DConversion returns the per-channel conversion from an input convention
// to ACN/N3D: for ACN channel i of the given order,
//
//	n3d[i] = scale[i] * in[src[i]]
//
// FuMa ordering or normalization is only defined up to first order; higher
// orders return an error.
func N3DConversion(order int, ord Ordering, norm Normalization) (scale []float64, src []int, err error) {
	if order < 0 {
		return nil, nil, fmt.Errorf("sph: N3DConversion order = %d, want >= 0", order)
	}
	if (ord == OrderingFuMa || norm == NormFuMa) && order > 1 {
		return nil, nil, fmt.Errorf("sph: FuMa conventions are undefined above order 1 (order = %d)", order)
	}

	nSH := NumChannels(order)
	scale = make([]float64, nSH)
	src = make([]int, nSH)
	for l := 0; l <= order; l++ {
		for m := -l; m <= l; m++ {
			i := l*(l+1) + m
			src[i] = i
			switch norm {
			case NormN3D:
				scale[i] = 1
			case NormSN3D:
				scale[i] = math.Sqrt(float64(2*l + 1))
			case NormFuMa:
				// MaxN equals SN3D at first order, except W at -3 dB.
				scale[i] = math.Sqrt(float64(2*l + 1))
				if l == 0 {
					scale[i] = math.Sqrt2
				}
			default:
				return nil, nil, fmt.Errorf("sph: unknown normalization %d", norm)
			}
		}
	}

	switch ord {
	case OrderingACN:
	case OrderingFuMa:
		// FuMa WXYZ vs ACN WYZX.
		if order >= 1 {
			src[1] = 2 // Y
			src[2] = 3 // Z
			src[3] = 1 // X
		}
	default:
		return nil, nil, fmt.Errorf("sph: unknown ordering %d", ord)
	}
	return scale, src, nil
}
