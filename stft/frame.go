// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package stft defines the time-frequency filterbank contract consumed by
// the analysis core, the dense complex frame tensor exchanged across it, and
// a windowed-overlap-add STFT reference implementation.
package stft

// Frame is a dense complex tensor of time-frequency samples, indexed by
// frequency band, channel and time slot.
type Frame struct {
	data   []complex128
	nBands int
	nCh    int
	nSlots int
}

// NewFrame allocates a zeroed frame of the given shape.
func NewFrame(nBands, nCh, nSlots int) *Frame {
	if nBands < 0 || nCh < 0 || nSlots < 0 {
		panic("NewFrame: negative dimension")
	}
	return &Frame{
		data:   make([]complex128, nBands*nCh*nSlots),
		nBands: nBands,
		nCh:    nCh,
		nSlots: nSlots,
	}
}

// Bands returns the number of frequency bands.
func (f *Frame) Bands() int { return f.nBands }

// Channels returns the number of channels.
func (f *Frame) Channels() int { return f.nCh }

// Slots returns the number of time slots.
func (f *Frame) Slots() int { return f.nSlots }

// At returns the sample at (band, channel, slot).
func (f *Frame) At(band, ch, slot int) complex128 {
	return f.data[f.index(band, ch, slot)]
}

// Set stores the sample at (band, channel, slot).
func (f *Frame) Set(band, ch, slot int, v complex128) {
	f.data[f.index(band, ch, slot)] = v
}

// BandChannel returns the slots of one (band, channel) pair as a slice view
// into frame storage.
func (f *Frame) BandChannel(band, ch int) []complex128 {
	base := f.index(band, ch, 0)
	return f.data[base : base+f.nSlots]
}

func (f *Frame) index(band, ch, slot int) int {
	if band < 0 || band >= f.nBands || ch < 0 || ch >= f.nCh || slot < 0 || slot >= f.nSlots {
		panic("Frame: index out of range")
	}
	return (band*f.nCh+ch)*f.nSlots + slot
}
