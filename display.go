// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

// numDisplaySlots is the display ring depth: one slot being written, one
// stable for the reader.
const numDisplaySlots = 2

// Display is one fully-written slot of analysis output, shaped
// [band][sector]. A slot returned by Analyzer.Display is stable until the
// writer wraps back around to it, one Analyze call later.
type Display struct {
	// Azimuth and Elevation are the smoothed DoA estimates in degrees.
	Azimuth   [][]float64
	Elevation [][]float64
	// Energy is the smoothed per-sector energy.
	Energy [][]float64
	// Colour is the band's position within the analysed frequency range,
	// in [0, 1].
	Colour [][]float64
	// Alpha is the sector energy rescaled into [alphaFloor, 1] against
	// the frame's energy range.
	Alpha [][]float64
}

func newDisplay(nBands, nSectors int) *Display {
	d := &Display{
		Azimuth:   make([][]float64, nBands),
		Elevation: make([][]float64, nBands),
		Energy:    make([][]float64, nBands),
		Colour:    make([][]float64, nBands),
		Alpha:     make([][]float64, nBands),
	}
	for b := 0; b < nBands; b++ {
		d.Azimuth[b] = make([]float64, nSectors)
		d.Elevation[b] = make([]float64, nSectors)
		d.Energy[b] = make([]float64, nSectors)
		d.Colour[b] = make([]float64, nSectors)
		d.Alpha[b] = make([]float64, nSectors)
	}
	return d
}

func (d *Display) zeroBand(b int) {
	for s := range d.Azimuth[b] {
		d.Azimuth[b][s] = 0
		d.Elevation[b][s] = 0
		d.Energy[b][s] = 0
		d.Colour[b][s] = 0
		d.Alpha[b][s] = 0
	}
}

func (d *Display) zeroSector(b, s int) {
	d.Azimuth[b][s] = 0
	d.Elevation[b][s] = 0
	d.Energy[b][s] = 0
	d.Colour[b][s] = 0
	d.Alpha[b][s] = 0
}
