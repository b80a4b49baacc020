package mask

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spyboat/internal/fault"
)

// OtsuBins is the histogram resolution of the automatic threshold.
const OtsuBins = 256

// Threshold is either a literal intensity or a request for the automatic
// Otsu threshold of the frame being masked.
type Threshold struct {
	Value float64
	Otsu  bool
}

// Literal returns a fixed threshold.
func Literal(v float64) Threshold {
	return Threshold{Value: v}
}

// Auto requests Otsu's threshold.
var Auto = Threshold{Otsu: true}

// ParseThreshold accepts a number, or "otsu" / "auto".
func ParseThreshold(s string) (Threshold, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "otsu", "auto":
		return Auto, nil
	case "":
		return Threshold{}, fmt.Errorf("%w: mask threshold", fault.ErrMissingParameter)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: mask threshold %q is neither a number nor \"otsu\"", fault.ErrInvalidParameter, s)
	}
	return Literal(v), nil
}

func (t Threshold) String() string {
	if t.Otsu {
		return "otsu"
	}
	return strconv.FormatFloat(t.Value, 'g', -1, 64)
}

// resolve returns the intensity below which values of frame are masked.
func (t Threshold) resolve(frame []float64) float64 {
	if t.Otsu {
		return OtsuThreshold(frame)
	}
	return t.Value
}

// OtsuThreshold splits a 256 bin histogram spanning [min, max] of values
// where the between class variance is largest and returns the upper edge of
// the last background bin, so values below it are exactly the background
// class. A constant input returns its value.
func OtsuThreshold(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return lo
	}

	edges := floats.Span(make([]float64, OtsuBins+1), lo, hi)
	centers := make([]float64, OtsuBins)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}

	dividers := slices.Clone(edges)
	dividers[OtsuBins] = math.Nextafter(hi, math.Inf(1))
	hist := stat.Histogram(nil, dividers, sorted, nil)

	// cumulative class weights and means from both ends
	w1 := make([]float64, OtsuBins)
	m1 := make([]float64, OtsuBins)
	var w, s float64
	for i := range hist {
		w += hist[i]
		s += hist[i] * centers[i]
		w1[i] = w
		if w > 0 {
			m1[i] = s / w
		}
	}
	w2 := make([]float64, OtsuBins)
	m2 := make([]float64, OtsuBins)
	w, s = 0, 0
	for i := OtsuBins - 1; i >= 0; i-- {
		w += hist[i]
		s += hist[i] * centers[i]
		w2[i] = w
		if w > 0 {
			m2[i] = s / w
		}
	}

	best, idx := -1.0, 0
	for i := 0; i < OtsuBins-1; i++ {
		d := m1[i] - m2[i+1]
		v := w1[i] * w2[i+1] * d * d
		if v > best {
			best, idx = v, i
		}
	}
	return edges[idx+1]
}
