// Package synth generates synthetic oscillating movies for testing the
// wavelet analysis.
package synth

import (
	"fmt"
	"math"

	"github.com/valyala/fastrand"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// Level is the mean intensity of the generated movies, half the 16-bit range.
const Level = 1 << 15

// PhaseShift is the phase offset of the upper half in PhaseShifted.
const PhaseShift = math.Pi / 3

// PeriodRatio is the period ratio of the upper half in PeriodShifted.
const PeriodRatio = 1.2

// Kind names a synthetic movie type.
type Kind string

const (
	KindSine        Kind = "sine"
	KindPhaseShift  Kind = "phase-shift"
	KindPeriodShift Kind = "period-shift"
)

// Generate dispatches on kind.
func Generate(kind Kind, frames, height, width int, period, dt float64) (*models.Movie, error) {
	if frames < 1 || height < 1 || width < 1 {
		return nil, fmt.Errorf("%w: movie shape (%d, %d, %d) must be positive", fault.ErrInvalidParameter, frames, height, width)
	}
	if period <= 0 || dt <= 0 {
		return nil, fmt.Errorf("%w: period and dt must be positive", fault.ErrInvalidParameter)
	}

	switch kind {
	case KindSine:
		return Sine(frames, height, width, period, dt), nil
	case KindPhaseShift:
		return PhaseShifted(frames, height, width, period, dt), nil
	case KindPeriodShift:
		return PeriodShifted(frames, height, width, period, dt), nil
	}
	return nil, fmt.Errorf("%w: unknown movie kind %q", fault.ErrInvalidParameter, kind)
}

// Sine returns a movie in which every pixel oscillates in sync with the
// given period.
func Sine(frames, height, width int, period, dt float64) *models.Movie {
	return halves(frames, height, width, func(t int, upper bool) float64 {
		return wave(t, dt, period, 0)
	})
}

// PhaseShifted returns a movie whose rows y <= height/2 lead the lower rows
// by PhaseShift.
func PhaseShifted(frames, height, width int, period, dt float64) *models.Movie {
	return halves(frames, height, width, func(t int, upper bool) float64 {
		if upper {
			return wave(t, dt, period, PhaseShift)
		}
		return wave(t, dt, period, 0)
	})
}

// PeriodShifted returns a movie whose rows y <= height/2 oscillate with
// PeriodRatio times the period of the lower rows.
func PeriodShifted(frames, height, width int, period, dt float64) *models.Movie {
	return halves(frames, height, width, func(t int, upper bool) float64 {
		if upper {
			return wave(t, dt, PeriodRatio*period, 0)
		}
		return wave(t, dt, period, 0)
	})
}

func wave(t int, dt, period, phase float64) float64 {
	return Level * (1 + math.Sin(2*math.Pi/period*float64(t)*dt+phase))
}

func halves(frames, height, width int, signal func(t int, upper bool) float64) *models.Movie {
	m := models.NewMovie(frames, height, width)
	for t := 0; t < frames; t++ {
		lower, upper := signal(t, false), signal(t, true)
		frame := m.Frame(t)
		for y := 0; y < height; y++ {
			v := lower
			if y <= height/2 {
				v = upper
			}
			row := frame[y*width : (y+1)*width]
			for x := range row {
				row[x] = v
			}
		}
	}
	return m
}

// AddNoise adds uniform noise in [-amplitude, amplitude) to every sample,
// in place. A non-zero seed makes the noise reproducible, zero seeds from
// the clock.
func AddNoise(m *models.Movie, amplitude float64, seed uint32) {
	var rng fastrand.RNG
	rng.Seed(seed)
	for i := range m.Data {
		u := float64(rng.Uint32()) / (1 << 32)
		m.Data[i] += amplitude * (2*u - 1)
	}
}
