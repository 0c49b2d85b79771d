// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package stft

// Filterbank is the transform contract the analysis core is written
// against: a forward transform from hop-sized time-domain blocks to
// time-frequency frames, its inverse, and the fixed band layout queried once
// after creation. Implementations own all transform state; changing the
// channel count is an explicit reconfiguration.
type Filterbank interface {
	// Forward transforms time-domain input, one slice per channel, each a
	// whole number of hops long, into a time-frequency frame with one
	// slot per hop.
	Forward(td [][]float64) (*Frame, error)

	// Inverse transforms a time-frequency frame back to time-domain
	// blocks, one slice per channel.
	Inverse(f *Frame) ([][]float64, error)

	// NumBands returns the number of frequency bands per channel.
	NumBands() int

	// CentreFreqs returns the band centre frequencies in Hz, length
	// NumBands.
	CentreFreqs() []float64

	// HopSize returns the fixed number of time-domain samples per slot.
	HopSize() int

	// SetNumChannels reconfigures the transform for a new channel count,
	// discarding internal state.
	SetNumChannels(n int) error
}
