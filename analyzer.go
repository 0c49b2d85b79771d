// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/2dChan/s2ambi/sph"
	"github.com/2dChan/s2ambi/stft"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Status is the analyzer initialization state.
type Status int32

const (
	// StatusNotInitialized means coefficients are stale; Reinit is
	// required before frames are analysed again.
	StatusNotInitialized Status = iota
	// StatusInitializing means a Reinit is in progress.
	StatusInitializing
	// StatusReady means frames are being analysed.
	StatusReady
)

const (
	// n3dToSN3DDipole converts first-order N3D channels to the SN3D
	// scaling the classical intensity formula expects.
	n3dToSN3DDipole = 0.5773502691896258 // 1/sqrt(3)

	// intensityEps is the squared-norm floor below which an intensity
	// vector carries no usable direction.
	intensityEps = 1e-10

	// energyEps guards the display range division.
	energyEps = 1e-10

	// alphaFloor keeps quiet sectors faintly visible.
	alphaFloor = 0.1
)

// Analyzer estimates per-band, per-sector direction of arrival and energy
// from time-frequency spherical-harmonic frames.
//
// Analyze is meant for a host audio callback and never blocks: while a
// configuration call holds the analyzer, frames are bypassed and the
// previous display output stands. Reinit and the setters belong on a
// separate configuration context and may block each other. Analyze itself
// must not be called concurrently with another Analyze.
type Analyzer struct {
	mu     sync.RWMutex
	status atomic.Int32

	cfg  Config
	grid s2.PointVector

	avg       float64
	convScale []float64
	convSrc   []int
	// sectors is indexed by analysis order; entries below 2 stay nil, the
	// order-1 path uses the first four signal channels directly.
	sectors    []*sectorSet
	maxSectors int

	// Smoothed estimator state, [band][sector]; survives across frames,
	// reset by Reinit.
	smoothDir    [][]r3.Vector
	smoothEnergy [][]float64

	slots     [numDisplaySlots]*Display
	writeSlot int
	lastSlot  atomic.Int32
}

// NewAnalyzer validates the configuration, builds the sector coefficients
// and returns a ready analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Conversion is checked up front so an unsupported convention fails
	// construction instead of the first Reinit.
	if _, _, err := sph.N3DConversion(cfg.Order, cfg.Ordering, cfg.Normalization); err != nil {
		return nil, err
	}
	a := &Analyzer{
		cfg:  cfg,
		grid: sph.GeodesicGrid(measurementGridLevel),
	}
	a.lastSlot.Store(-1)
	if err := a.Reinit(); err != nil {
		return nil, err
	}
	return a, nil
}

// Status returns the analyzer's initialization state.
func (a *Analyzer) Status() Status {
	return Status(a.status.Load())
}

// Config returns a copy of the current configuration.
func (a *Analyzer) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg := a.cfg
	cfg.CentreFreqs = append([]float64{}, a.cfg.CentreFreqs...)
	cfg.PerBandOrder = append([]int{}, a.cfg.PerBandOrder...)
	return cfg
}

// Reinit rebuilds the sector coefficients and the convention conversion for
// the current configuration and resets the smoothed estimator state. It runs
// to completion; Analyze calls arriving meanwhile are bypassed, not blocked.
// Reinvocation with an unchanged configuration reproduces identical
// coefficients.
func (a *Analyzer) Reinit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Store(int32(StatusInitializing))
	if err := a.rebuildLocked(); err != nil {
		a.status.Store(int32(StatusNotInitialized))
		return err
	}
	a.status.Store(int32(StatusReady))
	return nil
}

func (a *Analyzer) rebuildLocked() error {
	scale, src, err := sph.N3DConversion(a.cfg.Order, a.cfg.Ordering, a.cfg.Normalization)
	if err != nil {
		return err
	}

	sectors := make([]*sectorSet, a.cfg.Order+1)
	for order := 2; order <= a.cfg.Order; order++ {
		set, err := buildSectorSet(order, a.cfg.numSectors(order), a.grid)
		if err != nil {
			return err
		}
		sectors[order] = set
	}

	a.convScale, a.convSrc = scale, src
	a.sectors = sectors
	a.maxSectors = a.cfg.numSectors(a.cfg.Order)
	a.avg = a.cfg.avgCoeff()

	nBands := len(a.cfg.CentreFreqs)
	a.smoothDir = make([][]r3.Vector, nBands)
	a.smoothEnergy = make([][]float64, nBands)
	for b := 0; b < nBands; b++ {
		a.smoothDir[b] = make([]r3.Vector, a.maxSectors)
		a.smoothEnergy[b] = make([]float64, a.maxSectors)
	}
	for i := range a.slots {
		a.slots[i] = newDisplay(nBands, a.maxSectors)
	}
	a.writeSlot = 0
	a.lastSlot.Store(-1)
	return nil
}

// SetOrder requests a new master analysis order, clamped to [1, MaxOrder].
// The analyzer bypasses frames until the next Reinit rebuilds the sector
// coefficients.
func (a *Analyzer) SetOrder(order int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	order = clampOrder(order)
	if order == a.cfg.Order {
		return
	}
	a.cfg.Order = order
	a.cfg.PerBandOrder = nil
	a.status.Store(int32(StatusNotInitialized))
}

// SetAnalysisRange bounds the analysed frequency range in Hz. Takes effect
// on the next frame; no reinitialization needed.
func (a *Analyzer) SetAnalysisRange(minHz, maxHz float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if minHz < 0 {
		minHz = 0
	}
	if maxHz <= 0 {
		maxHz = a.cfg.SampleRate / 2
	}
	if minHz > maxHz {
		minHz, maxHz = maxHz, minHz
	}
	a.cfg.MinFreq, a.cfg.MaxFreq = minHz, maxHz
}

// SetAveragingTime sets the smoothing time constant in milliseconds. Takes
// effect on the next frame.
func (a *Analyzer) SetAveragingTime(ms float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ms < 0 {
		ms = 0
	}
	a.cfg.AvgTimeMs = ms
	a.avg = a.cfg.avgCoeff()
}

// SetConventions switches the expected input channel ordering and
// normalization. Takes effect on the next frame.
func (a *Analyzer) SetConventions(ord sph.Ordering, norm sph.Normalization) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	scale, src, err := sph.N3DConversion(a.cfg.Order, ord, norm)
	if err != nil {
		return err
	}
	a.cfg.Ordering, a.cfg.Normalization = ord, norm
	a.convScale, a.convSrc = scale, src
	return nil
}

// Analyze estimates DoA and energy for one time-frequency frame and writes a
// display slot. It returns false without touching any state when the
// analyzer is mid-reinitialization or its coefficients are stale; the frame
// is dropped, the previous display output remains readable.
//
// Frames with fewer channels than the analysis order expects are zero-filled
// on the missing channels; extra channels are ignored.
func (a *Analyzer) Analyze(frame *stft.Frame) bool {
	if !a.mu.TryRLock() {
		return false
	}
	defer a.mu.RUnlock()
	if Status(a.status.Load()) != StatusReady {
		return false
	}

	disp := a.slots[a.writeSlot]
	nBands := len(a.cfg.CentreFreqs)
	firstIn, lastIn := -1, -1
	n3d := make([]complex128, len(a.convScale))
	sig := make([]complex128, numPatterns)

	for b := 0; b < nBands; b++ {
		freq := a.cfg.CentreFreqs[b]
		if b >= frame.Bands() || freq < a.cfg.MinFreq || freq > a.cfg.MaxFreq {
			disp.zeroBand(b)
			continue
		}
		if firstIn < 0 {
			firstIn = b
		}
		lastIn = b

		order := a.cfg.bandOrder(b)
		set := a.sectors[order]
		nSec := 1
		if set != nil {
			nSec = set.nSectors
		}
		for slot := 0; slot < frame.Slots(); slot++ {
			a.convertToN3D(frame, b, slot, n3d)
			for sec := 0; sec < nSec; sec++ {
				sectorSignal(set, sec, n3d, sig)
				a.smooth(b, sec, sig)
			}
		}
		for sec := 0; sec < nSec; sec++ {
			az, el := smoothedAzEl(a.smoothDir[b][sec])
			disp.Azimuth[b][sec] = az
			disp.Elevation[b][sec] = el
			disp.Energy[b][sec] = a.smoothEnergy[b][sec]
		}
		for sec := nSec; sec < a.maxSectors; sec++ {
			disp.zeroSector(b, sec)
		}
	}

	a.stageDisplay(disp, firstIn, lastIn)
	a.lastSlot.Store(int32(a.writeSlot))
	a.writeSlot = (a.writeSlot + 1) % numDisplaySlots
	return true
}

// Display returns the last fully-written display slot, or nil before the
// first analysed frame. The slot stays stable for one read: the writer only
// reuses it after another Analyze call completes.
func (a *Analyzer) Display() *Display {
	i := a.lastSlot.Load()
	if i < 0 {
		return nil
	}
	return a.slots[i]
}

// convertToN3D gathers one time slot of a band as ACN/N3D channels,
// zero-filling channels the frame does not carry.
func (a *Analyzer) convertToN3D(frame *stft.Frame, band, slot int, dst []complex128) {
	for i := range dst {
		src := a.convSrc[i]
		if src >= frame.Channels() {
			dst[i] = 0
			continue
		}
		dst[i] = complex(a.convScale[i], 0) * frame.At(band, src, slot)
	}
}

// sectorSignal projects an N3D slot onto one sector's four patterns. A nil
// set is the order-1 bypass: the whole sphere is the sector and the
// lowest-order channels are used directly.
func sectorSignal(set *sectorSet, sec int, n3d, dst []complex128) {
	if set == nil {
		for p := 0; p < numPatterns; p++ {
			if p < len(n3d) {
				dst[p] = n3d[p]
			} else {
				dst[p] = 0
			}
		}
		return
	}
	for p := 0; p < numPatterns; p++ {
		var acc complex128
		for sh := 0; sh < set.nSH; sh++ {
			if sh >= len(n3d) {
				break
			}
			acc += set.coeff(p, sec, sh) * n3d[sh]
		}
		dst[p] = acc
	}
}

// smooth folds one slot's sector signal into the running DoA/energy state.
// sig is (omni, Y, Z, X) in N3D scaling.
func (a *Analyzer) smooth(b, sec int, sig []complex128) {
	w := sig[0]
	vy := sig[1] * complex(n3dToSN3DDipole, 0)
	vz := sig[2] * complex(n3dToSN3DDipole, 0)
	vx := sig[3] * complex(n3dToSN3DDipole, 0)

	energy := 0.5 * (sqAbs(w) + sqAbs(vx) + sqAbs(vy) + sqAbs(vz))
	intensity := r3.Vector{
		X: real(w)*real(vx) + imag(w)*imag(vx),
		Y: real(w)*real(vy) + imag(w)*imag(vy),
		Z: real(w)*real(vz) + imag(w)*imag(vz),
	}

	if intensity.Norm2() > intensityEps {
		// Blend directions as unit vectors so smoothing never tears
		// across the azimuth wrap.
		u := intensity.Normalize()
		blended := a.smoothDir[b][sec].Mul(a.avg).Add(u.Mul(1 - a.avg))
		if blended.Norm2() > intensityEps {
			u = blended.Normalize()
		}
		a.smoothDir[b][sec] = u
	}
	a.smoothEnergy[b][sec] = a.avg*a.smoothEnergy[b][sec] + (1-a.avg)*energy
}

// stageDisplay rescales the slot's energies into display alpha and colour
// values against the analysed range.
func (a *Analyzer) stageDisplay(disp *Display, firstIn, lastIn int) {
	if firstIn < 0 {
		return
	}
	minE, maxE := math.Inf(1), math.Inf(-1)
	for b := firstIn; b <= lastIn; b++ {
		for _, e := range disp.Energy[b] {
			minE = min(minE, e)
			maxE = max(maxE, e)
		}
	}
	span := float64(lastIn - firstIn)
	for b := firstIn; b <= lastIn; b++ {
		colour := 1.0
		if span > 0 {
			colour = float64(b-firstIn) / span
		}
		for s := range disp.Energy[b] {
			disp.Colour[b][s] = colour
			disp.Alpha[b][s] = alphaFloor +
				(1-alphaFloor)*(disp.Energy[b][s]-minE)/(maxE-minE+energyEps)
		}
	}
}

func smoothedAzEl(dir r3.Vector) (azDeg, elDeg float64) {
	if dir.Norm2() < intensityEps {
		return 0, 0
	}
	return sph.AzElFromPoint(s2.Point{Vector: dir})
}

func sqAbs(v complex128) float64 {
	return real(v)*real(v) + imag(v)*imag(v)
}
