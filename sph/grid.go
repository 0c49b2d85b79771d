// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package sph

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// GeodesicGrid returns a near-uniform spherical measurement grid built by
// subdividing an icosahedron level times, 10*4^level+2 points. Level 4 gives
// the 2562-point grid used for sector-pattern fitting.
func GeodesicGrid(level int) s2.PointVector {
	if level < 0 {
		panic("GeodesicGrid: level must be non-negative")
	}

	t := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vector{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for _i := 0; _i < level; _i++ {
		midCache := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if idx, ok := midCache[key]; ok {
				return idx
			}
			m := verts[a].Add(verts[b]).Normalize()
			verts = append(verts, m)
			idx := len(verts) - 1
			midCache[key] = idx
			return idx
		}
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	grid := make(s2.PointVector, len(verts))
	for i, v := range verts {
		grid[i] = s2.Point{Vector: v}
	}
	return grid
}

// FibonacciGrid returns cnt directions on the Fibonacci (golden-angle)
// spiral, a deterministic near-uniform spherical covering. Used for the
// per-order sector look directions.
func FibonacciGrid(cnt int) s2.PointVector {
	if cnt <= 0 {
		return nil
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	dirs := make(s2.PointVector, cnt)
	for i := 0; i < cnt; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(cnt)
		r := math.Sqrt(1 - z*z)
		phi := float64(i) * golden
		dirs[i] = s2.Point{Vector: r3.Vector{
			X: r * math.Cos(phi),
			Y: r * math.Sin(phi),
			Z: z,
		}}
	}
	return dirs
}
