package movieio

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// TestRoundTrip writes a movie and reads it back within 16-bit quantization
func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	movie := models.NewMovie(3, 4, 5)
	for i := range movie.Data {
		movie.Data[i] = -1 + 6*float64(i)/float64(len(movie.Data)-1)
	}

	if err := WriteDir(dir, movie, 2.5); err != nil {
		t.Fatalf("WriteDir failed: %v", err)
	}
	got, meta, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if meta == nil || meta.Dt != 2.5 || meta.Min != -1 || meta.Max != 5 {
		t.Fatalf("Unexpected sidecar %+v", meta)
	}
	if !got.SameShape(movie) {
		t.Fatalf("Expected shape %v, got %v", movie.Shape(), got.Shape())
	}
	step := 6.0 / 65535
	for i := range movie.Data {
		if math.Abs(got.Data[i]-movie.Data[i]) > step {
			t.Errorf("Element %d: expected %f, got %f", i, movie.Data[i], got.Data[i])
		}
	}
}

// TestListFrames orders frames numerically
func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img_10.tif", "img_2.tif", "img_1.TIFF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := ListFrames(dir)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	expected := []string{"img_1.TIFF", "img_2.tif", "img_10.tif"}
	if len(paths) != len(expected) {
		t.Fatalf("Expected %d frames, got %v", len(expected), paths)
	}
	for i := range expected {
		if filepath.Base(paths[i]) != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], filepath.Base(paths[i]))
		}
	}
}

// TestReadRawFrames reads 8-bit frames without a sidecar as raw grey levels
func TestReadRawFrames(t *testing.T) {
	dir := t.TempDir()
	for f := 0; f < 2; f++ {
		img := image.NewGray(image.Rect(0, 0, 3, 2))
		img.SetGray(1, 1, color.Gray{Y: uint8(100 + f)})
		file, err := os.Create(filepath.Join(dir, FrameName(f)))
		if err != nil {
			t.Fatal(err)
		}
		if err := tiff.Encode(file, img, nil); err != nil {
			t.Fatal(err)
		}
		file.Close()
	}

	movie, meta, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if meta != nil {
		t.Errorf("Expected no sidecar, got %+v", meta)
	}
	if movie.At(1, 1, 1) != 101 || movie.At(0, 0, 0) != 0 {
		t.Errorf("Expected raw grey levels, got %f and %f", movie.At(1, 1, 1), movie.At(0, 0, 0))
	}
}

// TestReadDirErrors covers empty directories and mismatched frames
func TestReadDirErrors(t *testing.T) {
	if _, _, err := ReadDir(t.TempDir()); !errors.Is(err, fault.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for an empty directory, got %v", err)
	}

	if _, _, err := ReadDir(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fault.ErrReadFailure) {
		t.Errorf("Expected ErrReadFailure for a missing directory, got %v", err)
	}

	dir := t.TempDir()
	if err := WriteFrame(filepath.Join(dir, FrameName(0)), make([]float64, 6), 3, 2, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(filepath.Join(dir, FrameName(1)), make([]float64, 6), 2, 3, 0, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadDir(dir); !errors.Is(err, fault.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

// TestSaveResults writes one directory per result movie
func TestSaveResults(t *testing.T) {
	dir := t.TempDir()
	res := models.NewResultSet(2, 2, 2)
	for i := range res.Period.Data {
		res.Period.Data[i] = 30
	}
	if err := SaveResults(res, "test", dir, 1); err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	for _, name := range models.ResultNames {
		paths, err := ListFrames(ResultDir(dir, name, "test"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(paths) != 2 {
			t.Errorf("%s: expected 2 frames, got %d", name, len(paths))
		}
	}

	period, _, err := ReadDir(ResultDir(dir, "period", "test"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for i, v := range period.Data {
		if v != 30 {
			t.Errorf("Element %d: expected constant period 30, got %f", i, v)
		}
	}
}
