// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package sphtri

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Face is a view structure for accessing one triangle of a Mesh.
type Face struct {
	idx int
	m   *Mesh
}

// NumFaces returns the number of triangles in the mesh.
func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// Face returns the face at the given index.
func (m *Mesh) Face(i int) Face {
	if i < 0 || i >= len(m.Faces) {
		panic("Face: index out of range")
	}
	return Face{idx: i, m: m}
}

// Index returns the face's index in the mesh.
func (f Face) Index() int {
	return f.idx
}

// VertexIndices returns the indices of the face's vertices in the mesh's
// Vertices, wound CCW looking out of the sphere.
func (f Face) VertexIndices() [3]int {
	return f.m.Faces[f.idx]
}

// Vertices returns the face's three vertices.
func (f Face) Vertices() (s2.Point, s2.Point, s2.Point) {
	t := f.m.Faces[f.idx]
	return f.m.Vertices[t[0]], f.m.Vertices[t[1]], f.m.Vertices[t[2]]
}

// Centroid returns the face centroid projected onto the sphere.
func (f Face) Centroid() s2.Point {
	a, b, c := f.Vertices()
	return s2.Point{Vector: a.Add(b.Vector).Add(c.Vector).Normalize()}
}

// Normal returns the face's unit outward normal.
func (f Face) Normal() r3.Vector {
	a, b, c := f.Vertices()
	return b.Sub(a.Vector).Cross(c.Sub(a.Vector)).Normalize()
}

// MaxAperture returns the largest vertex-to-vertex angle of the face.
func (f Face) MaxAperture() s1.Angle {
	a, b, c := f.Vertices()
	return s1.Angle(math.Acos(faceApertureCos(a.Vector, b.Vector, c.Vector)))
}

// Gains returns the three barycentric panning gains of direction u with
// respect to the face, via the precomputed inverted vertex matrix. All three
// are non-negative iff u lies inside the face's spherical triangle.
func (f Face) Gains(u r3.Vector) [3]float64 {
	inv := f.m.inv[f.idx]
	return [3]float64{u.Dot(inv[0]), u.Dot(inv[1]), u.Dot(inv[2])}
}
