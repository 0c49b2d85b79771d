// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package sphtri triangulates sets of unit directions on the sphere via their
// 3-D convex hull, producing the spherical triangle meshes that amplitude
// panning operates on.
package sphtri

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12

	// sliverTol is the tolerance on the (unnormalized) face-plane offset
	// used to reject faces whose plane passes through the origin. Tuned
	// empirically; validated by the mesh invariant tests.
	sliverTol = 1e-12

	// detTol rejects faces whose vertex matrix is numerically singular.
	detTol = 1e-12
)

// Mesh is a triangulation of a direction set: the hull vertices and the
// triangle faces covering the sphere. Faces index into Vertices.
type Mesh struct {
	Vertices s2.PointVector
	// NOTE: Wound CCW looking out of the sphere.
	Faces [][3]int

	// Per-face rows of the inverted vertex matrix; barycentric panning
	// gains for a direction u are u · inv[i].
	inv [][3]r3.Vector
}

// MeshOptions carries triangulation tuning parameters.
type MeshOptions struct {
	// Eps is the convex hull degeneracy tolerance.
	Eps float64
	// MaxApertureDeg discards triangles whose largest vertex-to-vertex
	// angle exceeds it. 180 keeps every triangle.
	MaxApertureDeg float64
	// FaceLimit is the safety bound on the hull face count; 0 means the
	// Euler-formula count 2L-4 for L input directions.
	FaceLimit int
	// JitterStdDev perturbs each input coordinate by a Gaussian of this
	// magnitude before hull construction, to break up coplanar and
	// duplicate direction sets. 0 disables.
	JitterStdDev float64
	// JitterSeed makes the perturbation reproducible.
	JitterSeed int64
}

// MeshOption mutates MeshOptions at construction.
type MeshOption func(*MeshOptions) error

// WithEps sets the convex hull degeneracy tolerance.
func WithEps(eps float64) MeshOption {
	return func(o *MeshOptions) error {
		if eps <= 0 {
			return fmt.Errorf("sphtri: WithEps(%v), want > 0", eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithMaxAperture discards triangles spanning more than the given angle in
// degrees, for rejecting triangles that bridge large gaps in a layout.
func WithMaxAperture(deg float64) MeshOption {
	return func(o *MeshOptions) error {
		if deg <= 0 || deg > 180 {
			return fmt.Errorf("sphtri: WithMaxAperture(%v), want in (0, 180]", deg)
		}
		o.MaxApertureDeg = deg
		return nil
	}
}

// WithFaceLimit overrides the safety bound on the face count.
func WithFaceLimit(n int) MeshOption {
	return func(o *MeshOptions) error {
		if n < 4 {
			return fmt.Errorf("sphtri: WithFaceLimit(%v), want >= 4", n)
		}
		o.FaceLimit = n
		return nil
	}
}

// WithJitter perturbs the input directions before triangulation. Use for
// large or partially degenerate direction sets (duplicates, coplanar rings).
func WithJitter(stddev float64, seed int64) MeshOption {
	return func(o *MeshOptions) error {
		if stddev < 0 {
			return fmt.Errorf("sphtri: WithJitter(%v, ...), want >= 0", stddev)
		}
		o.JitterStdDev = stddev
		o.JitterSeed = seed
		return nil
	}
}

// NewMesh triangulates the given unit directions. The hull is built with the
// incremental quickhull algorithm; faces are wound outward, and slivers whose
// plane passes through the origin are discarded, as are faces failing the
// aperture filter. Degenerate inputs (fewer than 4 directions, or a hull that
// exceeds the face safety bound) return an error; callers should perturb the
// input via WithJitter or fall back to a known-good layout.
func NewMesh(dirs s2.PointVector, setters ...MeshOption) (*Mesh, error) {
	opts := MeshOptions{
		Eps:            defaultEps,
		MaxApertureDeg: 180,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numDirs := len(dirs)
	if numDirs < 4 {
		return nil, errors.New("sphtri: insufficient directions for triangulation (minimum 4 required)")
	}
	faceLimit := opts.FaceLimit
	if faceLimit == 0 {
		faceLimit = 2*numDirs - 4
	}

	vertices := make(s2.PointVector, numDirs)
	copy(vertices, dirs)
	if opts.JitterStdDev > 0 {
		jitter(vertices, opts.JitterStdDev, opts.JitterSeed)
	}

	r3vertices := make([]r3.Vector, numDirs)
	for i, p := range vertices {
		r3vertices[i] = p.Vector
	}
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(r3vertices, true, true, opts.Eps)
	if len(ch.Indices)%3 != 0 || len(ch.Indices) < 12 {
		return nil, errors.New("sphtri: degenerate hull returned from QuickHull")
	}
	numFaces := len(ch.Indices) / 3
	if numFaces > faceLimit {
		return nil, fmt.Errorf("sphtri: hull face count %d exceeds safety bound %d", numFaces, faceLimit)
	}

	maxApertureCos := math.Cos(opts.MaxApertureDeg * math.Pi / 180)
	m := &Mesh{
		Vertices: vertices,
		Faces:    make([][3]int, 0, numFaces),
		inv:      make([][3]r3.Vector, 0, numFaces),
	}
	for i := 0; i < numFaces; i++ {
		f := [3]int{ch.Indices[i*3], ch.Indices[i*3+1], ch.Indices[i*3+2]}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		a, b, c := vertices[f[0]].Vector, vertices[f[1]].Vector, vertices[f[2]].Vector

		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		norm := b.Sub(a).Cross(c.Sub(a))
		offset := norm.Dot(centroid)
		if offset < -sliverTol {
			// Inward winding from numerical noise; re-orient outward.
			f[1], f[2] = f[2], f[1]
			b, c = c, b
			offset = -offset
		}
		if offset <= sliverTol {
			// Face plane passes through the origin: an inside-out
			// sliver that subtends >= 90 degrees from its centroid.
			continue
		}
		if opts.MaxApertureDeg < 180 && faceApertureCos(a, b, c) < maxApertureCos {
			continue
		}

		det := a.Dot(b.Cross(c))
		if math.Abs(det) < detTol {
			continue
		}
		m.Faces = append(m.Faces, f)
		m.inv = append(m.inv, [3]r3.Vector{
			b.Cross(c).Mul(1 / det),
			c.Cross(a).Mul(1 / det),
			a.Cross(b).Mul(1 / det),
		})
	}
	if len(m.Faces) == 0 {
		return nil, errors.New("sphtri: all hull faces rejected by post-filters")
	}
	return m, nil
}

// faceApertureCos returns the cosine of the largest vertex-to-vertex angle.
func faceApertureCos(a, b, c r3.Vector) float64 {
	return min(a.Dot(b), min(b.Dot(c), c.Dot(a)))
}

func jitter(vertices s2.PointVector, stddev float64, seed int64) {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	for i, p := range vertices {
		v := r3.Vector{
			X: p.X + random.NormFloat64()*stddev,
			Y: p.Y + random.NormFloat64()*stddev,
			Z: p.Z + random.NormFloat64()*stddev,
		}
		vertices[i] = s2.Point{Vector: v.Normalize()}
	}
}
