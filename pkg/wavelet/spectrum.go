package wavelet

import (
	"fmt"
	"math"
	"math/cmplx"

	"spyboat/internal/fault"
)

// Omega0 is the central angular frequency of the Morlet mother wavelet.
const Omega0 = 2 * math.Pi

// ScalesFromPeriods converts Fourier periods to Morlet scales in samples.
func ScalesFromPeriods(periods []float64, dt float64) []float64 {
	c := (Omega0 + math.Sqrt(2+Omega0*Omega0)) / (4 * math.Pi)
	scales := make([]float64, len(periods))
	for i, p := range periods {
		scales[i] = c * p / dt
	}
	return scales
}

// Morlet evaluates the scaled Morlet wavelet at time t (in samples).
func Morlet(t, scale float64) complex128 {
	x := t / scale
	norm := math.Pow(math.Pi, -0.25) * math.Exp(-0.5*x*x) / math.Sqrt(scale)
	return cmplx.Exp(complex(0, Omega0*x)) * complex(norm, 0)
}

// MorletKernel samples the wavelet at n points centred on zero, at
// t = -n/2, -n/2+1, ..., n/2-1.
func MorletKernel(n int, scale float64) []complex128 {
	k := make([]complex128, n)
	start := -float64(n) / 2
	for i := range k {
		k[i] = Morlet(start+float64(i), scale)
	}
	return k
}

// Spectrum holds the wavelet coefficients and the variance normalized power
// of one series, indexed [period][time].
type Spectrum struct {
	Periods []float64
	Coeffs  [][]complex128
	Power   [][]float64
}

func newSpectrum(periods []float64, frames int) *Spectrum {
	s := &Spectrum{
		Periods: periods,
		Coeffs:  make([][]complex128, len(periods)),
		Power:   make([][]float64, len(periods)),
	}
	for i := range periods {
		s.Coeffs[i] = make([]complex128, frames)
		s.Power[i] = make([]float64, frames)
	}
	return s
}

// Transform holds everything that depends only on the parameters and the
// movie length: the period grid, the scales and the wavelet kernels. It is
// immutable and may be shared by any number of workspaces.
type Transform struct {
	params  Parameters
	frames  int
	periods []float64
	scales  []float64

	kernels [][]complex128
	spectra [][]complex128
}

// NewTransform precomputes the wavelet bank for series of the given length.
// params are expected to be sanitized already, see Parameters.Sanitize.
func NewTransform(params Parameters, frames int) (*Transform, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if frames < 1 {
		return nil, fmt.Errorf("%w: series must have at least one sample", fault.ErrInvalidInput)
	}
	if params.Method == "" {
		params.Method = ConvolveFFT
	}

	t := &Transform{
		params:  params,
		frames:  frames,
		periods: params.PeriodGrid(),
	}
	t.scales = ScalesFromPeriods(t.periods, params.Dt)

	t.kernels = make([][]complex128, len(t.scales))
	for i, s := range t.scales {
		t.kernels[i] = MorletKernel(frames, s)
	}

	if params.Method == ConvolveFFT {
		conv := newFFTConvolver(frames, frames)
		t.spectra = make([][]complex128, len(t.kernels))
		for i, k := range t.kernels {
			t.spectra[i] = conv.kernelSpectrum(k)
		}
	}
	return t, nil
}

// Params returns the parameters the transform was built with.
func (t *Transform) Params() Parameters { return t.params }

// Frames returns the series length the transform accepts.
func (t *Transform) Frames() int { return t.frames }

// Periods returns a copy of the period grid.
func (t *Transform) Periods() []float64 {
	return append([]float64(nil), t.periods...)
}

// Scales returns a copy of the Morlet scales, in samples.
func (t *Transform) Scales() []float64 {
	return append([]float64(nil), t.scales...)
}

// Workspace carries the per goroutine scratch memory for a Transform.
type Workspace struct {
	t    *Transform
	conv *fftConvolver
	spec *Spectrum
	col  []float64
}

// NewWorkspace allocates scratch buffers for one goroutine.
func (t *Transform) NewWorkspace() *Workspace {
	w := &Workspace{
		t:    t,
		spec: newSpectrum(t.periods, t.frames),
		col:  make([]float64, len(t.periods)),
	}
	if t.params.Method == ConvolveFFT {
		w.conv = newFFTConvolver(t.frames, t.frames)
	}
	return w
}

// Spectrum computes the wavelet spectrum of an already preprocessed series.
// The power is |W|² divided by the population variance of the series; a
// constant series has zero power everywhere. The returned spectrum is owned
// by the workspace and overwritten by the next call.
func (w *Workspace) Spectrum(signal []float64, variance float64) (*Spectrum, error) {
	if len(signal) != w.t.frames {
		return nil, fmt.Errorf("%w: series has %d samples, transform expects %d",
			fault.ErrShapeMismatch, len(signal), w.t.frames)
	}

	offset := (w.t.frames - 1) / 2
	if w.conv != nil {
		w.conv.load(signal)
		for i, spec := range w.t.spectra {
			w.conv.convolve(w.spec.Coeffs[i], spec, offset)
		}
	} else {
		for i, kernel := range w.t.kernels {
			convolveSame(w.spec.Coeffs[i], signal, kernel, offset)
		}
	}

	for i, row := range w.spec.Coeffs {
		power := w.spec.Power[i]
		if variance == 0 {
			clear(power)
			continue
		}
		for j, c := range row {
			re, im := real(c), imag(c)
			power[j] = (re*re + im*im) / variance
		}
	}
	return w.spec, nil
}

// convolveSame writes the central len(dst) samples of the full linear
// convolution of x with kernel, starting at offset.
func convolveSame(dst []complex128, x []float64, kernel []complex128, offset int) {
	n, m := len(x), len(kernel)
	for i := range dst {
		j := i + offset
		lo, hi := j-m+1, j
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		var sum complex128
		for k := lo; k <= hi; k++ {
			sum += complex(x[k], 0) * kernel[j-k]
		}
		dst[i] = sum
	}
}
