// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2ambi implements spatially-localized direction-of-arrival and
// energy analysis of spherical-harmonic (Ambisonic) signals on the S2
// sphere.
//
// The Analyzer beamforms each time-frequency frame into spherical sectors
// whose coefficients are derived from amplitude-panning gain patterns over a
// dense spherical grid, estimates a direction and energy per sector and band
// from the active intensity vector, and exponentially smooths the estimates
// across frames for display.
//
// Supporting packages: sphtri triangulates direction sets on the sphere,
// vbap builds panning gain tables over such triangulations, sph provides
// spherical-harmonic bases and sampling grids, and stft defines the
// filterbank contract the analyzer consumes.
package s2ambi
