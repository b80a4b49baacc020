package wavelet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"spyboat/internal/fault"
)

// Preprocess applies the optional sinc detrending and amplitude
// normalization configured in params.
func Preprocess(signal []float64, params Parameters) ([]float64, error) {
	out, err := Detrend(signal, params.TCutoff, params.Dt)
	if err != nil {
		return nil, err
	}
	if params.WinSize != nil {
		out = NormalizeWithEnvelope(out, *params.WinSize, params.Dt)
	}
	return out, nil
}

// Analyze runs the full per pixel pipeline on one series: preprocessing,
// wavelet spectrum and ridge readout. Non-finite samples are rejected.
func (w *Workspace) Analyze(signal []float64) (RidgeSeries, error) {
	for i, v := range signal {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return RidgeSeries{}, fmt.Errorf("%w: non-finite sample %v at frame %d", fault.ErrNumeric, v, i)
		}
	}

	processed, err := Preprocess(signal, w.t.params)
	if err != nil {
		return RidgeSeries{}, err
	}
	_, variance := stat.PopMeanVariance(processed, nil)
	if constant(processed) {
		variance = 0
	}

	spec, err := w.Spectrum(processed, variance)
	if err != nil {
		return RidgeSeries{}, err
	}

	n := w.t.frames
	ridge := maxRidge(make([]int, n), spec.Power, w.col)
	out := newRidgeSeries(n)
	sigma := math.Sqrt(variance)
	for t, i := range ridge {
		out.Period[t] = w.t.periods[i]
		if variance == 0 {
			continue
		}
		p := spec.Power[i][t]
		out.Power[t] = p
		out.Phase[t] = WrapPhase(spec.Coeffs[i][t])
		out.Amplitude[t] = PowerToAmplitude(p, sigma, w.t.scales[i])
	}
	return out, nil
}

// AnalyzePixel is a convenience wrapper building a one-off transform for a
// single series. Batch callers should share a Transform and keep one
// Workspace per goroutine instead.
func AnalyzePixel(signal []float64, params Parameters) (RidgeSeries, error) {
	t, err := NewTransform(params, len(signal))
	if err != nil {
		return RidgeSeries{}, err
	}
	return t.NewWorkspace().Analyze(signal)
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
