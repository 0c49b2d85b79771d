// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package vbap

import (
	"fmt"
	"math"

	"github.com/2dChan/s2ambi/sphtri"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

const (
	// insideTol tolerates sources on a triangle edge landing marginally
	// outside by floating-point noise.
	insideTol = -0.001

	// minSpreadDeg below which MDAP degenerates to plain VBAP.
	minSpreadDeg = 0.1

	// numSpreadDirs is the MDAP ring resolution.
	numSpreadDirs = 8

	defaultPoleMarginDeg = 60
)

// TableOptions carries gain-table generation parameters.
type TableOptions struct {
	// SpreadDeg is the MDAP angular spread; 0 pans point sources.
	SpreadDeg float64
	// PoleMarginDeg is the colatitude margin within which a layout must
	// have a direction, else a dummy vertex is planted at that pole
	// before triangulation. 0 disables dummies.
	PoleMarginDeg float64
	// MeshOptions are passed through to the triangulator.
	MeshOptions []sphtri.MeshOption
}

// TableOption mutates TableOptions at construction.
type TableOption func(*TableOptions) error

// WithSpread sets the MDAP angular spread in degrees.
func WithSpread(deg float64) TableOption {
	return func(o *TableOptions) error {
		if deg < 0 || deg > 90 {
			return fmt.Errorf("vbap: WithSpread(%v), want in [0, 90]", deg)
		}
		o.SpreadDeg = deg
		return nil
	}
}

// WithPoleMargin sets the colatitude margin for dummy pole vertices.
func WithPoleMargin(deg float64) TableOption {
	return func(o *TableOptions) error {
		if deg < 0 || deg > 90 {
			return fmt.Errorf("vbap: WithPoleMargin(%v), want in [0, 90]", deg)
		}
		o.PoleMarginDeg = deg
		return nil
	}
}

// WithoutPoleDummies disables dummy pole vertices.
func WithoutPoleDummies() TableOption {
	return func(o *TableOptions) error {
		o.PoleMarginDeg = 0
		return nil
	}
}

// WithTriangulation passes options through to the layout triangulation.
func WithTriangulation(opts ...sphtri.MeshOption) TableOption {
	return func(o *TableOptions) error {
		o.MeshOptions = append(o.MeshOptions, opts...)
		return nil
	}
}

// NewGainTable pans every source direction over the triangulated loudspeaker
// layout and returns the dense energy-normalized gain table. Layouts leaving
// a pole uncovered are augmented with dummy vertices there first; the dummy
// columns are stripped from the result.
func NewGainTable(src, ls s2.PointVector, setters ...TableOption) (*GainTable, error) {
	opts := TableOptions{
		PoleMarginDeg: defaultPoleMarginDeg,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if len(ls) < 3 {
		return nil, fmt.Errorf("vbap: %d loudspeaker directions, want >= 3", len(ls))
	}

	layout := append(s2.PointVector{}, ls...)
	if opts.PoleMarginDeg > 0 {
		layout = addPoleDummies(layout, opts.PoleMarginDeg)
	}

	mesh, err := sphtri.NewMesh(layout, opts.MeshOptions...)
	if err != nil {
		return nil, fmt.Errorf("vbap: layout triangulation: %w", err)
	}

	nCh := len(ls)
	t := &GainTable{
		gains: make([]float64, len(src)*nCh),
		nSrc:  len(src),
		nCh:   nCh,
		norm:  NormEnergy,
	}
	accum := make([]float64, len(layout))
	for i, p := range src {
		for j := range accum {
			accum[j] = 0
		}
		for _, u := range panDirections(p, opts.SpreadDeg) {
			face, g, ok := FindTriplet(mesh, u)
			if !ok {
				continue
			}
			rmsNormalize(g[:])
			idx := face.VertexIndices()
			for k := 0; k < 3; k++ {
				accum[idx[k]] += g[k]
			}
		}
		rmsNormalize(accum)
		// Dummy columns sit past nCh and are dropped here.
		copy(t.Row(i), accum[:nCh])
	}
	return t, nil
}

// FindTriplet returns the first mesh face enclosing direction u together
// with its three barycentric gains. Gains marginally negative within the
// edge tolerance are clamped to zero. ok is false when no face encloses u.
func FindTriplet(mesh *sphtri.Mesh, u s2.Point) (face sphtri.Face, gains [3]float64, ok bool) {
	for i := 0; i < mesh.NumFaces(); i++ {
		f := mesh.Face(i)
		g := f.Gains(u.Vector)
		if g[0] < insideTol || g[1] < insideTol || g[2] < insideTol {
			continue
		}
		for k := 0; k < 3; k++ {
			if g[k] < 0 {
				g[k] = 0
			}
		}
		return f, g, true
	}
	return sphtri.Face{}, [3]float64{}, false
}

// panDirections returns the directions actually panned for a source: the
// source itself, plus an MDAP ring of auxiliary directions when the spread
// is audible.
func panDirections(p s2.Point, spreadDeg float64) s2.PointVector {
	if spreadDeg < minSpreadDeg {
		return s2.PointVector{p}
	}
	u := p.Vector
	// Any stable perpendicular base vector will do.
	ref := r3.Vector{Z: 1}
	if math.Abs(u.Z) > 0.99 {
		ref = r3.Vector{X: 1}
	}
	perp := u.Cross(ref).Normalize()

	tilt := spreadDeg / 2 * math.Pi / 180
	dirs := make(s2.PointVector, 0, numSpreadDirs+1)
	dirs = append(dirs, p)
	for k := 0; k < numSpreadDirs; k++ {
		phi := 2 * math.Pi * float64(k) / numSpreadDirs
		// Rotate perp around the source axis, then tilt off-axis.
		ring := perp.Mul(math.Cos(phi)).Add(u.Cross(perp).Mul(math.Sin(phi)))
		d := u.Mul(math.Cos(tilt)).Add(ring.Mul(math.Sin(tilt)))
		dirs = append(dirs, s2.Point{Vector: d.Normalize()})
	}
	return dirs
}

// addPoleDummies appends a synthetic vertex at each pole not already covered
// within the colatitude margin, preventing oversized polar triangles.
func addPoleDummies(layout s2.PointVector, marginDeg float64) s2.PointVector {
	cosMargin := math.Cos(marginDeg * math.Pi / 180)
	for _, zSign := range []float64{1, -1} {
		covered := false
		for _, p := range layout {
			if p.Z*zSign >= cosMargin {
				covered = true
				break
			}
		}
		if !covered {
			layout = append(layout, s2.Point{Vector: r3.Vector{Z: zSign}})
		}
	}
	return layout
}
