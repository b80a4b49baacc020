package wavelet

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"spyboat/internal/fault"
)

func sine(n int, period, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*float64(i)/period)
	}
	return x
}

func testParams() Parameters {
	return Parameters{Dt: 1, Tmin: 20, Tmax: 40, NT: 50}
}

// TestPeriodGrid checks the linear grid and the single period case
func TestPeriodGrid(t *testing.T) {
	p := Parameters{Dt: 1, Tmin: 10, Tmax: 20, NT: 5}
	grid := p.PeriodGrid()
	expected := []float64{10, 12.5, 15, 17.5, 20}
	if len(grid) != len(expected) {
		t.Fatalf("Expected %d periods, got %d", len(expected), len(grid))
	}
	for i := range grid {
		if math.Abs(grid[i]-expected[i]) > 1e-12 {
			t.Errorf("Period %d: expected %f, got %f", i, expected[i], grid[i])
		}
	}

	p.NT = 1
	grid = p.PeriodGrid()
	if len(grid) != 1 || grid[0] != 10 {
		t.Errorf("Expected single period [10], got %v", grid)
	}
}

// TestSanitize verifies the Nyquist and duration corrections and the errors
func TestSanitize(t *testing.T) {
	p := Parameters{Dt: 2, Tmin: 1, Tmax: 500, NT: 10}
	got, err := p.Sanitize(100, nil)
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if got.Tmin != 4 {
		t.Errorf("Expected Tmin raised to 4, got %f", got.Tmin)
	}
	if got.Tmax != 200 {
		t.Errorf("Expected Tmax capped at 200, got %f", got.Tmax)
	}
	if got.Method != ConvolveFFT {
		t.Errorf("Expected default method %q, got %q", ConvolveFFT, got.Method)
	}

	// zero and negative Tmin are below Nyquist too, not missing
	for _, tmin := range []float64{0, -5} {
		low := Parameters{Dt: 1, Tmin: tmin, Tmax: 40, NT: 10}
		got, err := low.Sanitize(100, nil)
		if err != nil {
			t.Errorf("Tmin=%g: Sanitize failed: %v", tmin, err)
			continue
		}
		if got.Tmin != 2 {
			t.Errorf("Tmin=%g: expected Tmin raised to 2, got %f", tmin, got.Tmin)
		}
	}

	tests := []struct {
		name   string
		params Parameters
		frames int
		want   error
	}{
		{"missing dt", Parameters{Tmin: 10, Tmax: 20, NT: 5}, 100, fault.ErrMissingParameter},
		{"missing nT", Parameters{Dt: 1, Tmin: 10, Tmax: 20}, 100, fault.ErrMissingParameter},
		{"negative dt", Parameters{Dt: -1, Tmin: 10, Tmax: 20, NT: 5}, 100, fault.ErrInvalidParameter},
		{"negative Tmax", Parameters{Dt: 1, Tmin: 10, Tmax: -20, NT: 5}, 100, fault.ErrInvalidParameter},
		{"inverted range", Parameters{Dt: 1, Tmin: 30, Tmax: 20, NT: 5}, 100, fault.ErrInvalidParameter},
		{"bad method", Parameters{Dt: 1, Tmin: 10, Tmax: 20, NT: 5, Method: "wavelet"}, 100, fault.ErrInvalidParameter},
		{"short detrend", Parameters{Dt: 1, Tmin: 2, Tmax: 2, NT: 1, TCutoff: Float(10)}, 2, fault.ErrInvalidInput},
		{"no frames", testParams(), 0, fault.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.params.Sanitize(tc.frames, nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestSincFilter checks normalization and symmetry of the window
func TestSincFilter(t *testing.T) {
	w, err := SincFilter(98, 0.02)
	if err != nil {
		t.Fatalf("SincFilter failed: %v", err)
	}
	if len(w) != 99 {
		t.Fatalf("Expected 99 coefficients, got %d", len(w))
	}
	var sum float64
	for i := range w {
		sum += w[i]
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Errorf("Filter not symmetric at %d: %g vs %g", i, w[i], w[len(w)-1-i])
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("Expected coefficients to sum to 1, got %f", sum)
	}

	if _, err := SincFilter(7, 0.02); !errors.Is(err, fault.ErrInvalidParameter) {
		t.Errorf("Expected error for odd filter length, got %v", err)
	}
}

// TestDetrend removes an offset and a slow drift while keeping a fast sine
func TestDetrend(t *testing.T) {
	n := 300
	osc := sine(n, 30, 1)
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = osc[i] + 2 + 0.01*float64(i)
	}

	out, err := Detrend(signal, Float(100), 1)
	if err != nil {
		t.Fatalf("Detrend failed: %v", err)
	}
	for i := 120; i < 180; i++ {
		if math.Abs(out[i]-osc[i]) > 0.05 {
			t.Errorf("Frame %d: expected %f after detrending, got %f", i, osc[i], out[i])
		}
	}

	constant := make([]float64, 50)
	for i := range constant {
		constant[i] = 5
	}
	out, err = Detrend(constant, Float(20), 1)
	if err != nil {
		t.Fatalf("Detrend failed: %v", err)
	}
	for i, v := range out {
		if math.Abs(v) > 1e-9 {
			t.Errorf("Frame %d: expected constant to detrend to 0, got %g", i, v)
		}
	}

	if _, err := Detrend([]float64{1, 2}, Float(10), 1); !errors.Is(err, fault.ErrInvalidInput) {
		t.Errorf("Expected error for a 2 sample series, got %v", err)
	}

	same, err := Detrend(signal, nil, 1)
	if err != nil || &same[0] != &signal[0] {
		t.Errorf("Expected untouched input without cutoff, got err=%v", err)
	}
}

// TestNormalizeWithEnvelope rescales a sine riding on an offset to unit amplitude
func TestNormalizeWithEnvelope(t *testing.T) {
	n := 200
	osc := sine(n, 20, 1)
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = 3*osc[i] + 10
	}

	out := NormalizeWithEnvelope(signal, 40, 1)
	for i := range out {
		if math.Abs(out[i]-osc[i]) > 1e-9 {
			t.Errorf("Frame %d: expected %f, got %f", i, osc[i], out[i])
		}
	}

	flat := NormalizeWithEnvelope([]float64{4, 4, 4, 4}, 2, 1)
	for i, v := range flat {
		if v != 0 {
			t.Errorf("Frame %d: expected 0 for a flat series, got %f", i, v)
		}
	}
}

// TestMorlet checks the wavelet normalization at its centre
func TestMorlet(t *testing.T) {
	s := 4.0
	got := Morlet(0, s)
	want := math.Pow(math.Pi, -0.25) / math.Sqrt(s)
	if math.Abs(real(got)-want) > 1e-12 || math.Abs(imag(got)) > 1e-12 {
		t.Errorf("Expected %f at t=0, got %v", want, got)
	}

	k := MorletKernel(5, s)
	if len(k) != 5 {
		t.Fatalf("Expected 5 samples, got %d", len(k))
	}
	if cmplx.Abs(k[0]-Morlet(-2.5, s)) > 1e-15 {
		t.Errorf("Expected first sample at t=-2.5, got %v", k[0])
	}
}

// TestFFTMatchesDirect compares both convolution paths on even and odd lengths
func TestFFTMatchesDirect(t *testing.T) {
	for _, n := range []int{64, 75} {
		signal := make([]float64, n)
		for i := range signal {
			x := float64(i)
			signal[i] = math.Sin(x/3) + 0.5*math.Cos(x/7) + 0.1*x
		}

		p := Parameters{Dt: 1, Tmin: 4, Tmax: 30, NT: 12}
		p.Method = ConvolveFFT
		fast, err := NewTransform(p, n)
		if err != nil {
			t.Fatalf("NewTransform failed: %v", err)
		}
		p.Method = ConvolveDirect
		slow, err := NewTransform(p, n)
		if err != nil {
			t.Fatalf("NewTransform failed: %v", err)
		}

		a, err := fast.NewWorkspace().Spectrum(signal, 1)
		if err != nil {
			t.Fatalf("FFT spectrum failed: %v", err)
		}
		b, err := slow.NewWorkspace().Spectrum(signal, 1)
		if err != nil {
			t.Fatalf("Direct spectrum failed: %v", err)
		}
		for i := range a.Coeffs {
			for j := range a.Coeffs[i] {
				if cmplx.Abs(a.Coeffs[i][j]-b.Coeffs[i][j]) > 1e-9 {
					t.Fatalf("n=%d period %d frame %d: fft %v, direct %v",
						n, i, j, a.Coeffs[i][j], b.Coeffs[i][j])
				}
			}
		}
	}
}

// TestMaxRidge picks the first maximum in every column
func TestMaxRidge(t *testing.T) {
	power := [][]float64{
		{1, 5, 2},
		{3, 5, 1},
		{2, 0, 2},
	}
	got := MaxRidge(power)
	expected := []int{1, 0, 0}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Column %d: expected ridge %d, got %d", i, expected[i], got[i])
		}
	}
}

// TestAnalyzeSine runs the pipeline on a clean 30 frame period sine
func TestAnalyzeSine(t *testing.T) {
	n := 100
	p := testParams()
	spacing := (p.Tmax - p.Tmin) / float64(p.NT-1)

	out, err := AnalyzePixel(sine(n, 30, 1), p)
	if err != nil {
		t.Fatalf("AnalyzePixel failed: %v", err)
	}

	for i := n / 4; i < 3*n/4; i++ {
		if math.Abs(out.Period[i]-30) > 2*spacing {
			t.Errorf("Frame %d: expected period near 30, got %f", i, out.Period[i])
		}
	}
	for i := range out.Phase {
		if out.Phase[i] < 0 || out.Phase[i] >= 2*math.Pi {
			t.Errorf("Frame %d: phase %f outside [0, 2π)", i, out.Phase[i])
		}
		if out.Period[i] < p.Tmin || out.Period[i] > p.Tmax {
			t.Errorf("Frame %d: period %f outside the grid", i, out.Period[i])
		}
	}
	for i := 0; i < n-1; i++ {
		step := math.Mod(out.Phase[i+1]-out.Phase[i]+2*math.Pi, 2*math.Pi)
		if step <= 0 || step >= math.Pi {
			t.Errorf("Frame %d: phase should advance by less than π, got %f", i, step)
		}
	}
}

// TestAnalyzeAmplitude checks the amplitude and power readout on a longer sine
func TestAnalyzeAmplitude(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping long series in short mode")
	}

	n := 300
	p := testParams()
	spacing := (p.Tmax - p.Tmin) / float64(p.NT-1)
	for _, method := range []ConvolutionMethod{ConvolveFFT, ConvolveDirect} {
		p.Method = method
		out, err := AnalyzePixel(sine(n, 30, 1), p)
		if err != nil {
			t.Fatalf("AnalyzePixel (%s) failed: %v", method, err)
		}
		for i := 60; i < 240; i++ {
			if math.Abs(out.Period[i]-30) > spacing {
				t.Errorf("%s frame %d: expected period near 30, got %f", method, i, out.Period[i])
			}
			if math.Abs(out.Amplitude[i]-1) > 0.05 {
				t.Errorf("%s frame %d: expected amplitude near 1, got %f", method, i, out.Amplitude[i])
			}
			if out.Power[i] < 10 {
				t.Errorf("%s frame %d: expected strong power, got %f", method, i, out.Power[i])
			}
		}
	}
}

// TestAnalyzeConstant expects a flat series to carry no oscillation
func TestAnalyzeConstant(t *testing.T) {
	signal := make([]float64, 40)
	for i := range signal {
		signal[i] = 0.3
	}
	p := Parameters{Dt: 1, Tmin: 4, Tmax: 20, NT: 10}
	out, err := AnalyzePixel(signal, p)
	if err != nil {
		t.Fatalf("AnalyzePixel failed: %v", err)
	}
	for i := range signal {
		if out.Power[i] != 0 || out.Amplitude[i] != 0 || out.Phase[i] != 0 {
			t.Errorf("Frame %d: expected zero power, amplitude and phase, got %f %f %f",
				i, out.Power[i], out.Amplitude[i], out.Phase[i])
		}
		if out.Period[i] != p.Tmin {
			t.Errorf("Frame %d: expected period %f, got %f", i, p.Tmin, out.Period[i])
		}
	}

	signal[7] = math.NaN()
	if _, err := AnalyzePixel(signal, p); !errors.Is(err, fault.ErrNumeric) {
		t.Errorf("Expected numeric error for NaN input, got %v", err)
	}
}
