// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2ambi

import (
	"fmt"
	"math"

	"github.com/2dChan/s2ambi/sph"
)

const (
	// MaxOrder is the highest supported spherical-harmonic analysis
	// order. Requested orders above it are clamped.
	MaxOrder = 7

	// maxAvgCoeff bounds the smoothing coefficient for numerical
	// stability.
	maxAvgCoeff = 0.99999
)

// Config is the analyzer configuration surface. SampleRate, HopSize and
// CentreFreqs describe the host filterbank; the rest are the user-adjustable
// analysis parameters.
type Config struct {
	// SampleRate in Hz.
	SampleRate float64
	// HopSize is the filterbank hop in samples.
	HopSize int
	// CentreFreqs are the filterbank band centre frequencies in Hz.
	CentreFreqs []float64

	// Order is the master spherical-harmonic analysis order, clamped to
	// [1, MaxOrder].
	Order int
	// PerBandOrder optionally lowers the analysis order per band; values
	// are clamped to [1, Order]. Empty means Order everywhere.
	PerBandOrder []int

	// MinFreq and MaxFreq bound the analysed frequency range in Hz.
	// MaxFreq zero means the Nyquist frequency.
	MinFreq, MaxFreq float64

	// AvgTimeMs is the exponential averaging time constant in
	// milliseconds. Zero disables smoothing.
	AvgTimeMs float64

	// Ordering and Normalization describe the incoming signal convention;
	// the analyzer converts to ACN/N3D internally.
	Ordering      sph.Ordering
	Normalization sph.Normalization

	// LinearSectorCount selects 2*order sectors per order instead of the
	// default order*order.
	LinearSectorCount bool
}

// validate normalizes the configuration in place, clamping the
// user-adjustable parameters and rejecting an unusable filterbank
// description.
func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("s2ambi: sample rate = %v, want > 0", c.SampleRate)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("s2ambi: hop size = %d, want > 0", c.HopSize)
	}
	if len(c.CentreFreqs) == 0 {
		return fmt.Errorf("s2ambi: no band centre frequencies")
	}
	if len(c.PerBandOrder) != 0 && len(c.PerBandOrder) != len(c.CentreFreqs) {
		return fmt.Errorf("s2ambi: %d per-band orders for %d bands",
			len(c.PerBandOrder), len(c.CentreFreqs))
	}

	c.Order = clampOrder(c.Order)
	if c.MaxFreq <= 0 {
		c.MaxFreq = c.SampleRate / 2
	}
	if c.MinFreq < 0 {
		c.MinFreq = 0
	}
	if c.MinFreq > c.MaxFreq {
		c.MinFreq, c.MaxFreq = c.MaxFreq, c.MinFreq
	}
	if c.AvgTimeMs < 0 {
		c.AvgTimeMs = 0
	}
	return nil
}

func clampOrder(order int) int {
	return min(max(order, 1), MaxOrder)
}

// numSectors returns the sector count for an analysis order under the
// configured growth rule. Order 1 always has a single whole-sphere sector.
func (c *Config) numSectors(order int) int {
	if order <= 1 {
		return 1
	}
	if c.LinearSectorCount {
		return 2 * order
	}
	return order * order
}

// avgCoeff derives the exponential smoothing coefficient from the averaging
// time constant and the frame rate, clamped to [0, maxAvgCoeff].
func (c *Config) avgCoeff() float64 {
	if c.AvgTimeMs <= 0 {
		return 0
	}
	framesPerSec := c.SampleRate / float64(c.HopSize)
	coeff := math.Exp(-1 / (c.AvgTimeMs / 1000 * framesPerSec))
	return min(max(coeff, 0), maxAvgCoeff)
}

// bandOrder returns the clamped analysis order for a band.
func (c *Config) bandOrder(band int) int {
	if len(c.PerBandOrder) == 0 || band >= len(c.PerBandOrder) {
		return c.Order
	}
	return min(max(c.PerBandOrder[band], 1), c.Order)
}
