// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package sph

import (
	"github.com/golang/geo/s2"
)

// PointFromAzEl returns the unit direction for an azimuth/elevation pair in
// degrees. Azimuth is measured counter-clockwise from +x towards +y,
// elevation upwards from the horizontal plane.
func PointFromAzEl(azDeg, elDeg float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(elDeg, azDeg))
}

// AzElFromPoint returns the azimuth/elevation of a direction in degrees,
// azimuth in (-180, 180], elevation in [-90, 90].
func AzElFromPoint(p s2.Point) (azDeg, elDeg float64) {
	ll := s2.LatLngFromPoint(p)
	return ll.Lng.Degrees(), ll.Lat.Degrees()
}
