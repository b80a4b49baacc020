package wavelet

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// RidgeSeries holds the wavelet descriptors of one series along its maximum
// power ridge, one value per time point.
type RidgeSeries struct {
	Period    []float64
	Phase     []float64
	Power     []float64
	Amplitude []float64
}

func newRidgeSeries(n int) RidgeSeries {
	return RidgeSeries{
		Period:    make([]float64, n),
		Phase:     make([]float64, n),
		Power:     make([]float64, n),
		Amplitude: make([]float64, n),
	}
}

// MaxRidge returns, for every time point, the index of the period with the
// largest power. Ties go to the smallest period index.
func MaxRidge(power [][]float64) []int {
	if len(power) == 0 {
		return nil
	}
	col := make([]float64, len(power))
	return maxRidge(make([]int, len(power[0])), power, col)
}

func maxRidge(dst []int, power [][]float64, col []float64) []int {
	for t := range dst {
		for i, row := range power {
			col[i] = row[t]
		}
		dst[t] = floats.MaxIdx(col)
	}
	return dst
}

// WrapPhase maps the argument of c onto [0, 2π).
func WrapPhase(c complex128) float64 {
	phi := cmplx.Phase(c)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	if phi >= 2*math.Pi {
		phi = 0
	}
	return phi
}

// PowerToAmplitude recovers the oscillation amplitude, in units of the
// analysed series, from the normalized power at the given scale (in
// samples). sigma is the standard deviation of the analysed series.
func PowerToAmplitude(power, sigma, scale float64) float64 {
	return math.Sqrt(power) * sigma * math.Sqrt2 * math.Pow(math.Pi, -0.25) / math.Sqrt(scale)
}
