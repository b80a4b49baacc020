// Package wavelet computes per-pixel oscillation descriptors (period, phase,
// power, amplitude) from a time series with a Morlet continuous wavelet
// transform.
package wavelet

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"spyboat/internal/fault"
)

// ConvolutionMethod selects how each wavelet row is convolved with the signal.
type ConvolutionMethod string

const (
	// ConvolveFFT multiplies zero padded spectra, O(F log F) per period.
	ConvolveFFT ConvolutionMethod = "fft"
	// ConvolveDirect sums the full kernel at every time point, O(F²) per period.
	ConvolveDirect ConvolutionMethod = "direct"
)

// Parameters configures a transform run. TCutoff and WinSize are optional:
// nil disables sinc detrending and amplitude normalization respectively.
type Parameters struct {
	Dt   float64 `json:"dt" yaml:"dt"`
	Tmin float64 `json:"tmin" yaml:"tmin"`
	Tmax float64 `json:"tmax" yaml:"tmax"`
	NT   int     `json:"nT" yaml:"nT"`

	TCutoff *float64 `json:"tCutoff,omitempty" yaml:"tCutoff,omitempty"`
	WinSize *float64 `json:"winSize,omitempty" yaml:"winSize,omitempty"`

	Method ConvolutionMethod `json:"method,omitempty" yaml:"method,omitempty"`
}

// Float returns a pointer to v, for the optional parameters.
func Float(v float64) *float64 {
	return &v
}

// Validate checks that the required parameters are present and consistent.
// It does not look at the movie, see Sanitize for the range corrections.
// Tmin has no lower bound here: anything below the Nyquist limit, zero and
// negative values included, is raised by Sanitize.
func (p Parameters) Validate() error {
	switch {
	case p.Dt == 0:
		return fmt.Errorf("%w: dt", fault.ErrMissingParameter)
	case p.Tmax == 0:
		return fmt.Errorf("%w: Tmax", fault.ErrMissingParameter)
	case p.NT == 0:
		return fmt.Errorf("%w: nT", fault.ErrMissingParameter)
	}

	if p.Dt < 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", fault.ErrInvalidParameter, p.Dt)
	}
	if p.Tmax < 0 {
		return fmt.Errorf("%w: Tmax must be positive, got %g", fault.ErrInvalidParameter, p.Tmax)
	}
	if p.NT < 0 {
		return fmt.Errorf("%w: nT must be at least 1, got %d", fault.ErrInvalidParameter, p.NT)
	}
	if p.Tmin >= p.Tmax && p.NT > 1 {
		return fmt.Errorf("%w: Tmin (%g) must be smaller than Tmax (%g)", fault.ErrInvalidParameter, p.Tmin, p.Tmax)
	}
	if p.TCutoff != nil && *p.TCutoff <= 0 {
		return fmt.Errorf("%w: T_c must be positive, got %g", fault.ErrInvalidParameter, *p.TCutoff)
	}
	if p.WinSize != nil && *p.WinSize <= 0 {
		return fmt.Errorf("%w: win_size must be positive, got %g", fault.ErrInvalidParameter, *p.WinSize)
	}
	switch p.Method {
	case "", ConvolveFFT, ConvolveDirect:
	default:
		return fmt.Errorf("%w: unknown convolution method %q", fault.ErrInvalidParameter, p.Method)
	}
	return nil
}

// Sanitize validates p against a movie with the given number of frames and
// returns a copy with the period range corrected: Tmin is raised to the
// Nyquist limit 2·dt and Tmax is capped at the recording duration dt·F.
// Both corrections are logged as warnings and are not errors.
func (p Parameters) Sanitize(frames int, logger *slog.Logger) (Parameters, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	if frames < 1 {
		return p, fmt.Errorf("%w: movie has no frames", fault.ErrInvalidInput)
	}
	if p.TCutoff != nil && frames < 3 {
		return p, fmt.Errorf("%w: sinc detrending needs at least 3 frames, got %d", fault.ErrInvalidInput, frames)
	}

	if nyquist := 2 * p.Dt; p.Tmin < nyquist {
		logger.Warn("Nyquist limit is 2 times the sampling interval, raising Tmin",
			"requested", p.Tmin, "tmin", nyquist)
		p.Tmin = nyquist
	}
	if duration := p.Dt * float64(frames); p.Tmax > duration {
		logger.Warn("very large periods chosen, capping Tmax at the recording duration",
			"requested", p.Tmax, "tmax", duration)
		p.Tmax = duration
	}
	if p.Tmin > p.Tmax {
		return p, fmt.Errorf("%w: corrected period range is empty (Tmin=%g, Tmax=%g)",
			fault.ErrInvalidParameter, p.Tmin, p.Tmax)
	}
	if p.Method == "" {
		p.Method = ConvolveFFT
	}
	return p, nil
}

// PeriodGrid returns the nT periods linearly spaced over [Tmin, Tmax].
func (p Parameters) PeriodGrid() []float64 {
	if p.NT == 1 {
		return []float64{p.Tmin}
	}
	return floats.Span(make([]float64, p.NT), p.Tmin, p.Tmax)
}
