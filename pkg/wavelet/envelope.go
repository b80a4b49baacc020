package wavelet

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SlidingAmplitude estimates the local amplitude envelope of signal as half
// the peak-to-peak range inside a centred window of winSize time units.
// The window is at least 3 samples, odd, and truncated at the edges.
func SlidingAmplitude(signal []float64, winSize, dt float64) []float64 {
	n := len(signal)
	size := int(math.Round(winSize / dt))
	if size > n {
		size = n
	}
	if size%2 == 0 {
		size--
	}
	if size < 3 {
		size = 3
	}
	half := size / 2

	env := make([]float64, n)
	for i := range env {
		lo, hi := i-half, i+half+1
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		win := signal[lo:hi]
		env[i] = (floats.Max(win) - floats.Min(win)) / 2
	}
	return env
}

// NormalizeWithEnvelope removes the mean of signal and divides it by its
// sliding window amplitude envelope. Samples with a zero envelope carry no
// oscillation and are set to zero.
func NormalizeWithEnvelope(signal []float64, winSize, dt float64) []float64 {
	mean := stat.Mean(signal, nil)
	centred := make([]float64, len(signal))
	for i, v := range signal {
		centred[i] = v - mean
	}

	env := SlidingAmplitude(centred, winSize, dt)
	for i, e := range env {
		if e == 0 {
			centred[i] = 0
			continue
		}
		centred[i] /= e
	}
	return centred
}
