// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package stft

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT is a weighted-overlap-add short-time Fourier transform with a
// square-root Hann window and 50% overlap. It satisfies Filterbank; a
// Forward/Inverse round trip reconstructs the input delayed by one hop.
type STFT struct {
	fs  float64
	hop int
	nCh int

	fft    *fourier.FFT
	window []float64
	freqs  []float64

	// Per-channel last input hop (analysis) and synthesis overlap tail.
	inTail  [][]float64
	outTail [][]float64
}

var _ Filterbank = (*STFT)(nil)

// New creates an STFT filterbank for the given sample rate, hop size and
// channel count. The FFT length is twice the hop.
func New(fs float64, hop, nCh int) (*STFT, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("stft: sample rate = %v, want > 0", fs)
	}
	if hop < 2 || hop%2 != 0 {
		return nil, fmt.Errorf("stft: hop size = %d, want a positive even number", hop)
	}
	if nCh < 1 {
		return nil, fmt.Errorf("stft: %d channels, want >= 1", nCh)
	}

	n := 2 * hop
	window := make([]float64, n)
	for i := 0; i < n; i++ {
		// Square-root periodic Hann: applied on both analysis and
		// synthesis, the squared windows overlap-add to one.
		window[i] = math.Sqrt(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n))))
	}
	freqs := make([]float64, hop+1)
	for k := range freqs {
		freqs[k] = float64(k) * fs / float64(n)
	}

	s := &STFT{
		fs:     fs,
		hop:    hop,
		fft:    fourier.NewFFT(n),
		window: window,
		freqs:  freqs,
	}
	if err := s.SetNumChannels(nCh); err != nil {
		return nil, err
	}
	return s, nil
}

// NumBands returns the number of frequency bands, hop+1.
func (s *STFT) NumBands() int { return s.hop + 1 }

// CentreFreqs returns the uniform band centre frequencies in Hz.
func (s *STFT) CentreFreqs() []float64 {
	out := make([]float64, len(s.freqs))
	copy(out, s.freqs)
	return out
}

// HopSize returns the hop size in samples.
func (s *STFT) HopSize() int { return s.hop }

// SetNumChannels reconfigures the channel count and resets transform state.
func (s *STFT) SetNumChannels(n int) error {
	if n < 1 {
		return fmt.Errorf("stft: %d channels, want >= 1", n)
	}
	s.nCh = n
	s.inTail = make([][]float64, n)
	s.outTail = make([][]float64, n)
	for ch := 0; ch < n; ch++ {
		s.inTail[ch] = make([]float64, s.hop)
		s.outTail[ch] = make([]float64, s.hop)
	}
	return nil
}

// Forward transforms hop-multiple time-domain blocks into a frame with one
// time slot per hop.
func (s *STFT) Forward(td [][]float64) (*Frame, error) {
	if len(td) != s.nCh {
		return nil, fmt.Errorf("stft: Forward got %d channels, want %d", len(td), s.nCh)
	}
	if len(td[0])%s.hop != 0 || len(td[0]) == 0 {
		return nil, fmt.Errorf("stft: Forward block length %d, want a positive multiple of hop %d",
			len(td[0]), s.hop)
	}
	nSlots := len(td[0]) / s.hop
	for ch := range td {
		if len(td[ch]) != nSlots*s.hop {
			return nil, fmt.Errorf("stft: Forward channel %d length %d, want %d",
				ch, len(td[ch]), nSlots*s.hop)
		}
	}

	n := 2 * s.hop
	frame := NewFrame(s.NumBands(), s.nCh, nSlots)
	seq := make([]float64, n)
	spec := make([]complex128, s.NumBands())
	for ch := 0; ch < s.nCh; ch++ {
		for slot := 0; slot < nSlots; slot++ {
			block := td[ch][slot*s.hop : (slot+1)*s.hop]
			copy(seq, s.inTail[ch])
			copy(seq[s.hop:], block)
			copy(s.inTail[ch], block)
			for i := range seq {
				seq[i] *= s.window[i]
			}
			s.fft.Coefficients(spec, seq)
			for b := 0; b < s.NumBands(); b++ {
				frame.Set(b, ch, slot, spec[b])
			}
		}
	}
	return frame, nil
}

// Inverse transforms a frame back into hop-multiple time-domain blocks.
func (s *STFT) Inverse(f *Frame) ([][]float64, error) {
	if f.Channels() != s.nCh {
		return nil, fmt.Errorf("stft: Inverse got %d channels, want %d", f.Channels(), s.nCh)
	}
	if f.Bands() != s.NumBands() {
		return nil, fmt.Errorf("stft: Inverse got %d bands, want %d", f.Bands(), s.NumBands())
	}

	n := 2 * s.hop
	scale := 1 / float64(n) // fourier.FFT round trips scaled by the length
	td := make([][]float64, s.nCh)
	spec := make([]complex128, s.NumBands())
	for ch := 0; ch < s.nCh; ch++ {
		td[ch] = make([]float64, f.Slots()*s.hop)
		for slot := 0; slot < f.Slots(); slot++ {
			for b := 0; b < s.NumBands(); b++ {
				spec[b] = f.At(b, ch, slot)
			}
			seq := s.fft.Sequence(nil, spec)
			out := td[ch][slot*s.hop : (slot+1)*s.hop]
			for i := 0; i < n; i++ {
				seq[i] *= s.window[i] * scale
			}
			for i := 0; i < s.hop; i++ {
				out[i] = s.outTail[ch][i] + seq[i]
				s.outTail[ch][i] = seq[s.hop+i]
			}
		}
	}
	return td, nil
}
