// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

import (
	"math"
	"testing"

	"github.com/2dChan/s2ambi/sph"
)

func TestBuildSectorSet_Shape(t *testing.T) {
	grid := sph.GeodesicGrid(3)
	tests := []struct {
		name     string
		order    int
		nSectors int
	}{
		{"order 2", 2, 4},
		{"order 3", 3, 9},
		{"order 3 linear", 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := buildSectorSet(tt.order, tt.nSectors, grid)
			if err != nil {
				t.Fatalf("buildSectorSet(%d, %d, grid) error = %v, want nil", tt.order, tt.nSectors, err)
			}
			wantLen := numPatterns * tt.nSectors * sph.NumChannels(tt.order)
			if len(set.coeffs) != wantLen {
				t.Errorf("len(coeffs) = %v, want %v", len(set.coeffs), wantLen)
			}
			for i, c := range set.coeffs {
				if imag(c) != 0 {
					t.Fatalf("coeffs[%d] imaginary part = %v, want 0", i, imag(c))
				}
			}
		})
	}
}

// The amplitude-normalized sector weights partition unity on the sphere, so
// the omni patterns of all sectors must sum to the constant function: SH
// coefficient 1 on the omni channel, 0 elsewhere.
func TestBuildSectorSet_OmniPartitionOfUnity(t *testing.T) {
	const (
		order     = 3
		nSectors  = 9
		tolerance = 0.02
	)
	grid := sph.GeodesicGrid(4)
	set, err := buildSectorSet(order, nSectors, grid)
	if err != nil {
		t.Fatalf("buildSectorSet(...) error = %v, want nil", err)
	}
	for sh := 0; sh < sph.NumChannels(order); sh++ {
		sum := 0.0
		for s := 0; s < nSectors; s++ {
			sum += real(set.coeff(0, s, sh))
		}
		want := 0.0
		if sh == 0 {
			want = 1.0
		}
		if math.Abs(sum-want) > tolerance {
			t.Errorf("sum over sectors of omni coeff[%d] = %v, want ~%v", sh, sum, want)
		}
	}
}

func TestBuildSectorSet_Deterministic(t *testing.T) {
	grid := sph.GeodesicGrid(3)
	a, err := buildSectorSet(2, 4, grid)
	if err != nil {
		t.Fatalf("buildSectorSet(...) error = %v, want nil", err)
	}
	b, err := buildSectorSet(2, 4, grid)
	if err != nil {
		t.Fatalf("buildSectorSet(...) error = %v, want nil", err)
	}
	for i := range a.coeffs {
		if a.coeffs[i] != b.coeffs[i] {
			t.Fatalf("coeffs[%d] differs between identical builds", i)
		}
	}
}
