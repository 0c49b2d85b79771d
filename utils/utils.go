// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides direction-set generators for tests and examples:
// random directions and common loudspeaker layouts.
package utils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// GenerateRandomDirections generates a vector of random unit directions.
// The seed parameter ensures reproducibility.
func GenerateRandomDirections(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	dirs := make(s2.PointVector, cnt)

	for i := 0; i < cnt; i++ {
		dirs[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle(math.Asin(random.Float64()*2 - 1)),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}

	return dirs
}

// RingLayout generates cnt equally spaced directions on the circle of the
// given elevation, starting at azimuth 0. A horizontal loudspeaker ring when
// elevDeg is 0.
func RingLayout(cnt int, elevDeg float64) s2.PointVector {
	dirs := make(s2.PointVector, cnt)
	for i := 0; i < cnt; i++ {
		azim := float64(i) * 360 / float64(cnt)
		if azim > 180 {
			azim -= 360
		}
		dirs[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(elevDeg, azim))
	}
	return dirs
}

// CubeLayout generates the eight corner directions of a cube, a minimal
// full-sphere loudspeaker layout.
func CubeLayout() s2.PointVector {
	elev := math.Atan(1/math.Sqrt2) * 180 / math.Pi
	dirs := make(s2.PointVector, 0, 8)
	for _, e := range []float64{elev, -elev} {
		for _, a := range []float64{45, 135, -135, -45} {
			dirs = append(dirs, s2.PointFromLatLng(s2.LatLngFromDegrees(e, a)))
		}
	}
	return dirs
}
