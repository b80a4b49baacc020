package wavelet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"spyboat/internal/fault"
)

// SincFilter returns the M+1 coefficients of a Blackman windowed ideal
// low-pass filter with cutoff fc, given in units of the sampling frequency
// (at most 0.5). The coefficients sum to one. M must be even.
func SincFilter(m int, fc float64) ([]float64, error) {
	if m%2 != 0 || m < 2 {
		return nil, fmt.Errorf("%w: sinc filter length M must be even and at least 2, got %d", fault.ErrInvalidParameter, m)
	}

	half := float64(m) / 2
	w := make([]float64, m+1)
	for i := range w {
		x := float64(i)
		if x == half {
			w[i] = 2 * math.Pi * fc
			continue
		}
		r := math.Sin(2*math.Pi*fc*(x-half)) / (x - half)
		r *= 0.42 - 0.5*math.Cos(2*math.Pi*x/float64(m)) + 0.08*math.Cos(4*math.Pi*x/float64(m))
		w[i] = r
	}

	floats.Scale(1/floats.Sum(w), w)
	return w, nil
}

// SincSmooth low-pass filters signal with cutoff period tc, returning the
// trend. The filter spans the longest even length below the signal length.
func SincSmooth(signal []float64, tc, dt float64) ([]float64, error) {
	n := len(signal)
	if n < 3 {
		return nil, fmt.Errorf("%w: sinc smoothing needs at least 3 samples, got %d", fault.ErrInvalidInput, n)
	}

	m := n - 1
	if m%2 != 0 {
		m--
	}
	w, err := SincFilter(m, dt/tc)
	if err != nil {
		return nil, err
	}
	return mirrorConvolve(signal, w), nil
}

// Detrend subtracts the sinc low-pass trend. A nil cutoff returns the input
// slice itself, untouched.
func Detrend(signal []float64, tc *float64, dt float64) ([]float64, error) {
	if tc == nil {
		return signal, nil
	}
	trend, err := SincSmooth(signal, *tc, dt)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(signal))
	floats.SubTo(out, signal, trend)
	return out, nil
}

// mirrorConvolve applies the odd length, symmetric kernel w centred on every
// sample. The signal is reflected about its first sample on the left and
// mirrored including its last sample on the right, so the output keeps the
// input length.
func mirrorConvolve(x, w []float64) []float64 {
	n := len(x)
	h := (len(w) - 1) / 2
	out := make([]float64, n)
	for i := range out {
		var sum float64
		for k, wk := range w {
			sum += wk * x[mirrorIndex(i+k-h, n)]
		}
		out[i] = sum
	}
	return out
}

func mirrorIndex(j, n int) int {
	switch {
	case j < 0:
		return -j
	case j >= n:
		return 2*n - 1 - j
	}
	return j
}
