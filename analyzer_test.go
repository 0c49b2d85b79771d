// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

import (
	"math"
	"math/rand"
	"testing"

	"github.com/2dChan/s2ambi/sph"
	"github.com/2dChan/s2ambi/stft"
)

func mustNewAnalyzer(t *testing.T, cfg Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer(...) error = %v, want nil", err)
	}
	return a
}

// planeWaveFrame synthesizes the ACN/N3D spherical-harmonic frame of a
// single plane wave arriving from (azDeg, elDeg), identical in every band
// and slot.
func planeWaveFrame(order, nBands, nSlots int, azDeg, elDeg float64, amp complex128) *stft.Frame {
	nCh := sph.NumChannels(order)
	y := make([]float64, nCh)
	sph.RealSHVec(order, sph.PointFromAzEl(azDeg, elDeg), y)
	frame := stft.NewFrame(nBands, nCh, nSlots)
	for b := 0; b < nBands; b++ {
		for ch := 0; ch < nCh; ch++ {
			for slot := 0; slot < nSlots; slot++ {
				frame.Set(b, ch, slot, amp*complex(y[ch], 0))
			}
		}
	}
	return frame
}

// angularErrDeg is the great-circle angle between an estimate and the truth.
func angularErrDeg(azGot, elGot, azWant, elWant float64) float64 {
	a := sph.PointFromAzEl(azGot, elGot)
	b := sph.PointFromAzEl(azWant, elWant)
	return a.Angle(b.Vector).Degrees()
}

func TestNewAnalyzer_FuMaAboveFirstOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 3
	cfg.Ordering = sph.OrderingFuMa
	cfg.Normalization = sph.NormFuMa
	if _, err := NewAnalyzer(cfg); err == nil {
		t.Errorf("NewAnalyzer(FuMa, order 3) error = nil, want non-nil")
	}
}

func TestAnalyze_FirstOrderPlaneWaveRecovery(t *testing.T) {
	// One direction per octant plus an oblique extra; the bypass path
	// must recover each within 2 degrees.
	dirs := []struct{ az, el float64 }{
		{30, 10},
		{120, -40},
		{-60, 45},
		{-150, -20},
		{10, 70},
		{-95, -65},
	}
	cfg := testConfig()
	cfg.Order = 1
	a := mustNewAnalyzer(t, cfg)

	for _, d := range dirs {
		if err := a.Reinit(); err != nil {
			t.Fatalf("Reinit() error = %v, want nil", err)
		}
		frame := planeWaveFrame(1, len(cfg.CentreFreqs), 4, d.az, d.el, complex(1, 0.5))
		if !a.Analyze(frame) {
			t.Fatalf("Analyze(...) = false, want true")
		}
		disp := a.Display()
		if disp == nil {
			t.Fatalf("Display() = nil after Analyze")
		}
		// Band 2 (1 kHz) lies inside the analysed range.
		got := angularErrDeg(disp.Azimuth[2][0], disp.Elevation[2][0], d.az, d.el)
		if got > 2 {
			t.Errorf("direction (%v, %v): estimate (%v, %v), angular error %v°, want <= 2°",
				d.az, d.el, disp.Azimuth[2][0], disp.Elevation[2][0], got)
		}
	}
}

func TestAnalyze_SmoothedConvergence(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 1
	cfg.AvgTimeMs = 100
	a := mustNewAnalyzer(t, cfg)

	// Pull the state towards one direction, then hold another long past
	// the time constant; the estimate must settle on the second.
	first := planeWaveFrame(1, len(cfg.CentreFreqs), 4, -120, -30, 1)
	for _i := 0; _i < 50; _i++ {
		a.Analyze(first)
	}
	second := planeWaveFrame(1, len(cfg.CentreFreqs), 4, 40, 25, 1)
	for _i := 0; _i < 400; _i++ {
		a.Analyze(second)
	}

	disp := a.Display()
	got := angularErrDeg(disp.Azimuth[2][0], disp.Elevation[2][0], 40, 25)
	if got > 2 {
		t.Errorf("converged estimate (%v, %v), angular error %v°, want <= 2°",
			disp.Azimuth[2][0], disp.Elevation[2][0], got)
	}
	if disp.Energy[2][0] <= 0 {
		t.Errorf("converged energy = %v, want > 0", disp.Energy[2][0])
	}
}

func TestAnalyze_SectorPathRecoversLoudestDirection(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 3
	a := mustNewAnalyzer(t, cfg)

	const (
		azWant = 75.0
		elWant = 15.0
	)
	frame := planeWaveFrame(3, len(cfg.CentreFreqs), 4, azWant, elWant, complex(0.8, -0.3))
	if !a.Analyze(frame) {
		t.Fatalf("Analyze(...) = false, want true")
	}
	disp := a.Display()

	const band = 2
	best := 0
	for s := range disp.Energy[band] {
		if disp.Energy[band][s] > disp.Energy[band][best] {
			best = s
		}
	}
	got := angularErrDeg(disp.Azimuth[band][best], disp.Elevation[band][best], azWant, elWant)
	if got > 10 {
		t.Errorf("loudest sector estimate (%v, %v), angular error %v°, want <= 10°",
			disp.Azimuth[band][best], disp.Elevation[band][best], got)
	}
}

func TestAnalyze_Conventions(t *testing.T) {
	const (
		azWant = -50.0
		elWant = 30.0
	)
	p := sph.PointFromAzEl(azWant, elWant)
	sqrt3 := math.Sqrt(3)

	tests := []struct {
		name     string
		ord      sph.Ordering
		norm     sph.Normalization
		channels []float64
	}{
		{"acn n3d", sph.OrderingACN, sph.NormN3D,
			[]float64{1, sqrt3 * p.Y, sqrt3 * p.Z, sqrt3 * p.X}},
		{"acn sn3d", sph.OrderingACN, sph.NormSN3D,
			[]float64{1, p.Y, p.Z, p.X}},
		{"fuma", sph.OrderingFuMa, sph.NormFuMa,
			[]float64{1 / math.Sqrt2, p.X, p.Y, p.Z}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Order = 1
			cfg.Ordering = tt.ord
			cfg.Normalization = tt.norm
			a := mustNewAnalyzer(t, cfg)

			frame := stft.NewFrame(len(cfg.CentreFreqs), 4, 2)
			for b := 0; b < frame.Bands(); b++ {
				for ch := 0; ch < 4; ch++ {
					for slot := 0; slot < frame.Slots(); slot++ {
						frame.Set(b, ch, slot, complex(tt.channels[ch], 0))
					}
				}
			}
			if !a.Analyze(frame) {
				t.Fatalf("Analyze(...) = false, want true")
			}
			disp := a.Display()
			got := angularErrDeg(disp.Azimuth[2][0], disp.Elevation[2][0], azWant, elWant)
			if got > 2 {
				t.Errorf("estimate (%v, %v), angular error %v°, want <= 2°",
					disp.Azimuth[2][0], disp.Elevation[2][0], got)
			}
		})
	}
}

func TestAnalyze_EnergyAndRangeBounds(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 2
	cfg.AvgTimeMs = 50
	a := mustNewAnalyzer(t, cfg)

	//nolint:gosec
	random := rand.New(rand.NewSource(17))
	nCh := sph.NumChannels(cfg.Order)
	for _i := 0; _i < 20; _i++ {
		frame := stft.NewFrame(len(cfg.CentreFreqs), nCh, 4)
		for b := 0; b < frame.Bands(); b++ {
			for ch := 0; ch < nCh; ch++ {
				for slot := 0; slot < frame.Slots(); slot++ {
					frame.Set(b, ch, slot,
						complex(random.NormFloat64(), random.NormFloat64()))
				}
			}
		}
		if !a.Analyze(frame) {
			t.Fatalf("Analyze(...) = false, want true")
		}
	}

	disp := a.Display()
	const epsilon = 1e-12
	for b := range disp.Energy {
		inRange := cfg.CentreFreqs[b] >= cfg.MinFreq && cfg.CentreFreqs[b] <= cfg.MaxFreq
		for s := range disp.Energy[b] {
			if e := disp.Energy[b][s]; e < 0 || math.IsNaN(e) {
				t.Errorf("Energy[%d][%d] = %v, want >= 0", b, s, e)
			}
			if az := disp.Azimuth[b][s]; az <= -180-epsilon || az > 180+epsilon || math.IsNaN(az) {
				t.Errorf("Azimuth[%d][%d] = %v, want in (-180, 180]", b, s, az)
			}
			if el := disp.Elevation[b][s]; el < -90-epsilon || el > 90+epsilon || math.IsNaN(el) {
				t.Errorf("Elevation[%d][%d] = %v, want in [-90, 90]", b, s, el)
			}
			if !inRange {
				if disp.Alpha[b][s] != 0 || disp.Colour[b][s] != 0 {
					t.Errorf("out-of-range band %d sector %d not zeroed", b, s)
				}
				continue
			}
			if al := disp.Alpha[b][s]; al < alphaFloor-epsilon || al > 1+epsilon {
				t.Errorf("Alpha[%d][%d] = %v, want in [%v, 1]", b, s, al, alphaFloor)
			}
			if c := disp.Colour[b][s]; c < 0 || c > 1 {
				t.Errorf("Colour[%d][%d] = %v, want in [0, 1]", b, s, c)
			}
		}
	}
}

func TestAnalyze_FewerChannelsZeroFilled(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 2
	a := mustNewAnalyzer(t, cfg)

	// Omni-only input: directions are indeterminate but nothing may blow
	// up, and energies stay non-negative.
	frame := stft.NewFrame(len(cfg.CentreFreqs), 1, 2)
	for b := 0; b < frame.Bands(); b++ {
		for slot := 0; slot < frame.Slots(); slot++ {
			frame.Set(b, 0, slot, complex(1, 0))
		}
	}
	if !a.Analyze(frame) {
		t.Fatalf("Analyze(...) = false, want true")
	}
	disp := a.Display()
	for b := range disp.Energy {
		for s := range disp.Energy[b] {
			if e := disp.Energy[b][s]; e < 0 || math.IsNaN(e) {
				t.Errorf("Energy[%d][%d] = %v, want >= 0 and finite", b, s, e)
			}
			if math.IsNaN(disp.Azimuth[b][s]) || math.IsNaN(disp.Elevation[b][s]) {
				t.Errorf("NaN direction at band %d sector %d", b, s)
			}
		}
	}
}

func TestAnalyzer_ReinitIdempotent(t *testing.T) {
	cfg := testConfig()
	cfg.Order = 3
	a := mustNewAnalyzer(t, cfg)

	before := make(map[int][]complex128)
	for order, set := range a.sectors {
		if set == nil {
			continue
		}
		before[order] = append([]complex128{}, set.coeffs...)
	}
	if err := a.Reinit(); err != nil {
		t.Fatalf("Reinit() error = %v, want nil", err)
	}
	for order, want := range before {
		got := a.sectors[order].coeffs
		if len(got) != len(want) {
			t.Fatalf("order %d: coeff count %d, want %d", order, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order %d: coeffs[%d] differs after Reinit", order, i)
			}
		}
	}
}

func TestAnalyzer_SetOrderRequiresReinit(t *testing.T) {
	cfg := testConfig()
	a := mustNewAnalyzer(t, cfg)
	frame := planeWaveFrame(1, len(cfg.CentreFreqs), 2, 0, 0, 1)

	if !a.Analyze(frame) {
		t.Fatalf("Analyze(...) = false before SetOrder, want true")
	}
	a.SetOrder(2)
	if got := a.Status(); got != StatusNotInitialized {
		t.Fatalf("Status() after SetOrder = %v, want StatusNotInitialized", got)
	}
	if a.Analyze(frame) {
		t.Errorf("Analyze(...) = true with stale coefficients, want false (bypass)")
	}
	if err := a.Reinit(); err != nil {
		t.Fatalf("Reinit() error = %v, want nil", err)
	}
	if got := a.Status(); got != StatusReady {
		t.Fatalf("Status() after Reinit = %v, want StatusReady", got)
	}
	if !a.Analyze(frame) {
		t.Errorf("Analyze(...) = false after Reinit, want true")
	}
}

func TestAnalyzer_SetOrderClamped(t *testing.T) {
	a := mustNewAnalyzer(t, testConfig())
	a.SetOrder(99)
	if got := a.Config().Order; got != MaxOrder {
		t.Errorf("Order after SetOrder(99) = %v, want %v", got, MaxOrder)
	}
	a.SetOrder(-1)
	if got := a.Config().Order; got != 1 {
		t.Errorf("Order after SetOrder(-1) = %v, want 1", got)
	}
}

func TestAnalyzer_DisplayRingAlternates(t *testing.T) {
	cfg := testConfig()
	a := mustNewAnalyzer(t, cfg)
	if a.Display() != nil {
		t.Fatalf("Display() before first frame = non-nil, want nil")
	}

	frame := planeWaveFrame(1, len(cfg.CentreFreqs), 2, 10, 0, 1)
	a.Analyze(frame)
	d1 := a.Display()
	a.Analyze(frame)
	d2 := a.Display()
	a.Analyze(frame)
	d3 := a.Display()

	if d1 == nil || d2 == nil || d1 == d2 {
		t.Errorf("consecutive Display() slots not alternating: %p, %p", d1, d2)
	}
	if d3 != d1 {
		t.Errorf("ring of %d slots did not wrap: %p, %p", numDisplaySlots, d1, d3)
	}
}

func TestAnalyzer_SetAnalysisRange(t *testing.T) {
	cfg := testConfig()
	a := mustNewAnalyzer(t, cfg)
	a.SetAnalysisRange(5000, 300)
	got := a.Config()
	if got.MinFreq != 300 || got.MaxFreq != 5000 {
		t.Errorf("range after SetAnalysisRange(5000, 300) = [%v, %v], want [300, 5000]",
			got.MinFreq, got.MaxFreq)
	}

	frame := planeWaveFrame(1, len(cfg.CentreFreqs), 2, 10, 0, 1)
	a.Analyze(frame)
	disp := a.Display()
	// 16 kHz band is now out of range and must be zeroed.
	last := len(cfg.CentreFreqs) - 1
	if disp.Alpha[last][0] != 0 || disp.Energy[last][0] != 0 {
		t.Errorf("out-of-range band %d not zeroed in display", last)
	}
}
