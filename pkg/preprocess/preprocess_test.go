package preprocess

import (
	"errors"
	"math"
	"testing"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// createRamp builds frames with value x + 10y + 100t
func createRamp(frames, height, width int) *models.Movie {
	m := models.NewMovie(frames, height, width)
	for t := 0; t < frames; t++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				m.Set(t, y, x, float64(x)+10*float64(y)+100*float64(t))
			}
		}
	}
	return m
}

// TestDownsample halves a ramp, which averages each 2×2 block
func TestDownsample(t *testing.T) {
	m := createRamp(3, 4, 6)
	out, err := Downsample(m, 0.5, Options{})
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	if out.Frames != 3 || out.Height != 2 || out.Width != 3 {
		t.Fatalf("Expected shape (3, 2, 3), got %v", out.Shape())
	}
	for tt := 0; tt < 3; tt++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				want := (float64(2*x)+0.5) + 10*(float64(2*y)+0.5) + 100*float64(tt)
				if got := out.At(tt, y, x); math.Abs(got-want) > 1e-9 {
					t.Errorf("(%d, %d, %d): expected %f, got %f", tt, y, x, want, got)
				}
			}
		}
	}

	same, err := Downsample(m, 1, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	for i := range m.Data {
		if same.Data[i] != m.Data[i] {
			t.Fatalf("Factor 1 changed element %d", i)
		}
	}

	tiny, err := Downsample(m, 0.01, Options{})
	if err != nil || tiny.Height != 1 || tiny.Width != 1 {
		t.Errorf("Expected a 1×1 movie, got %v, %v", tiny, err)
	}

	for _, f := range []float64{0, -1, 2} {
		if _, err := Downsample(m, f, Options{}); !errors.Is(err, fault.ErrInvalidParameter) {
			t.Errorf("Factor %g: expected ErrInvalidParameter, got %v", f, err)
		}
	}
}

// TestGaussianBlur checks kernel normalization, flat frames and mass conservation
func TestGaussianBlur(t *testing.T) {
	k := GaussianKernel(1.5)
	if len(k) != 13 {
		t.Errorf("Expected kernel of radius 6, got length %d", len(k))
	}
	var sum float64
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("Expected kernel to sum to 1, got %f", sum)
	}

	flat := models.NewMovie(2, 5, 5)
	for i := range flat.Data {
		flat.Data[i] = 3
	}
	out := GaussianBlur(flat, 2, Options{})
	for i, v := range out.Data {
		if math.Abs(v-3) > 1e-12 {
			t.Fatalf("Flat frame changed at %d: %f", i, v)
		}
	}

	impulse := models.NewMovie(1, 21, 21)
	impulse.Set(0, 10, 10, 1)
	calls := 0
	out = GaussianBlur(impulse, 1, Options{Progress: func(done, total int) { calls++ }})
	var mass float64
	for _, v := range out.Data {
		mass += v
	}
	if math.Abs(mass-1) > 1e-9 {
		t.Errorf("Expected blur to keep the total intensity, got %f", mass)
	}
	if out.At(0, 10, 10) >= 1 || out.At(0, 10, 11) <= 0 {
		t.Errorf("Expected the impulse spread to its neighbours")
	}
	if calls != 1 {
		t.Errorf("Expected one progress call, got %d", calls)
	}

	copyOut := GaussianBlur(impulse, 0, Options{})
	copyOut.Set(0, 10, 10, 5)
	if impulse.At(0, 10, 10) != 1 {
		t.Errorf("Expected sigma 0 to return an independent copy")
	}
}
