package wavelet

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fftConvolver computes linear convolutions of real series with fixed
// complex kernels through zero padded FFTs. It keeps scratch buffers and
// must not be shared between goroutines.
type fftConvolver struct {
	size int
	fft  *fourier.CmplxFFT

	padded []complex128
	signal []complex128
	prod   []complex128
	seq    []complex128
}

// newFFTConvolver prepares a convolver for series of n samples convolved with
// kernels of m samples, padding to the next 5-smooth length so that the full
// linear convolution does not wrap around.
func newFFTConvolver(n, m int) *fftConvolver {
	size := fastFFTSize(n + m - 1)
	return &fftConvolver{
		size:   size,
		fft:    fourier.NewCmplxFFT(size),
		padded: make([]complex128, size),
		signal: make([]complex128, size),
		prod:   make([]complex128, size),
		seq:    make([]complex128, size),
	}
}

// kernelSpectrum returns the FFT of the zero padded kernel in a new slice.
func (c *fftConvolver) kernelSpectrum(kernel []complex128) []complex128 {
	clear(c.padded)
	copy(c.padded, kernel)
	return c.fft.Coefficients(make([]complex128, c.size), c.padded)
}

// load transforms the real series x, which is then convolved by every
// following call to convolve.
func (c *fftConvolver) load(x []float64) {
	clear(c.padded)
	for i, v := range x {
		c.padded[i] = complex(v, 0)
	}
	c.fft.Coefficients(c.signal, c.padded)
}

// convolve writes len(dst) samples of the full linear convolution of the
// loaded series with the kernel whose spectrum is given, starting at offset.
func (c *fftConvolver) convolve(dst []complex128, spectrum []complex128, offset int) {
	for i, s := range c.signal {
		c.prod[i] = s * spectrum[i]
	}
	c.fft.Sequence(c.seq, c.prod)

	norm := complex(1/float64(c.size), 0)
	for i := range dst {
		dst[i] = c.seq[offset+i] * norm
	}
}

// fastFFTSize returns the smallest integer >= n with no prime factor above 5.
func fastFFTSize(n int) int {
	if n <= 1 {
		return 1
	}
	for m := n; ; m++ {
		r := m
		for _, p := range []int{2, 3, 5} {
			for r%p == 0 {
				r /= p
			}
		}
		if r == 1 {
			return m
		}
	}
}
