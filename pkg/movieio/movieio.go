// Package movieio reads and writes movies as directories of single frame
// grey TIFF images with a YAML sidecar describing shape and value range.
package movieio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// SidecarName is the metadata file stored next to the frames.
const SidecarName = "movie.yaml"

// Sidecar describes a movie directory. Min and Max are the values mapped to
// grey levels 0 and 65535.
type Sidecar struct {
	Frames int     `yaml:"frames"`
	Height int     `yaml:"height"`
	Width  int     `yaml:"width"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Dt     float64 `yaml:"dt,omitempty"`
}

var frameNumber = regexp.MustCompile(`(\d+)\D*$`)

// FrameName returns the file name of frame t.
func FrameName(t int) string {
	return fmt.Sprintf("frame_%04d.tif", t)
}

// ListFrames returns the TIFF files of dir ordered by the last number in
// their name, then by name.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	type frame struct {
		name string
		num  int
	}
	var frames []frame
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".tif" && ext != ".tiff") {
			continue
		}
		num := -1
		if m := frameNumber.FindStringSubmatch(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))); m != nil {
			num, _ = strconv.Atoi(m[1])
		}
		frames = append(frames, frame{e.Name(), num})
	}
	sort.Slice(frames, func(i, j int) bool {
		if frames[i].num != frames[j].num {
			return frames[i].num < frames[j].num
		}
		return frames[i].name < frames[j].name
	})

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = filepath.Join(dir, f.name)
	}
	return paths, nil
}

// ReadDir loads a movie directory. Without a sidecar the raw grey levels are
// returned; with one they are mapped back onto [Min, Max]. The returned
// sidecar is nil when none exists.
func ReadDir(dir string) (*models.Movie, *Sidecar, error) {
	paths, err := ListFrames(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w: movie has no frames in %s", fault.ErrInvalidInput, dir)
	}

	meta, err := ReadSidecar(dir)
	if err != nil {
		return nil, nil, err
	}

	var movie *models.Movie
	for t, path := range paths {
		data, width, height, err := ReadFrame(path)
		if err != nil {
			return nil, nil, err
		}
		if movie == nil {
			movie = models.NewMovie(len(paths), height, width)
		} else if width != movie.Width || height != movie.Height {
			return nil, nil, fmt.Errorf("%w: frame %s is %d×%d, expected %d×%d",
				fault.ErrShapeMismatch, filepath.Base(path), width, height, movie.Width, movie.Height)
		}
		copy(movie.Frame(t), data)
	}

	if meta != nil {
		scale := (meta.Max - meta.Min) / 65535
		for i, v := range movie.Data {
			movie.Data[i] = meta.Min + v*scale
		}
	}
	return movie, meta, nil
}

// ReadSidecar loads dir/movie.yaml, returning nil when it does not exist.
func ReadSidecar(dir string) (*Sidecar, error) {
	data, err := os.ReadFile(filepath.Join(dir, SidecarName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	var meta Sidecar
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", fault.ErrReadFailure, SidecarName, err)
	}
	return &meta, nil
}

// ReadFrame decodes a single grey TIFF into row-major intensities.
func ReadFrame(path string) ([]float64, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	img, err := tiff.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: decoding %s: %w", fault.ErrReadFailure, path, err)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]float64, width*height)
	switch g := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		// colour frames are reduced to their luminance
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				data[y*width+x] = float64(c.Y)
			}
		}
	}
	return data, width, height, nil
}

// WriteFrame encodes a frame as a deflate compressed 16-bit grey TIFF,
// mapping [min, max] linearly onto [0, 65535]. NaNs become 0.
func WriteFrame(path string, data []float64, width, height int, min, max float64) error {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	scale := 0.0
	if max > min {
		scale = 65535 / (max - min)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - min) * scale
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v))})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return fmt.Errorf("%w: encoding %s: %w", fault.ErrWriteFailure, path, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}
	return nil
}

// WriteDir stores movie as frame TIFFs plus sidecar in dir, creating it.
func WriteDir(dir string, movie *models.Movie, dt float64) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}

	min, max := valueRange(movie.Data)
	for t := 0; t < movie.Frames; t++ {
		path := filepath.Join(dir, FrameName(t))
		if err := WriteFrame(path, movie.Frame(t), movie.Width, movie.Height, min, max); err != nil {
			return err
		}
	}

	meta := Sidecar{
		Frames: movie.Frames,
		Height: movie.Height,
		Width:  movie.Width,
		Min:    min,
		Max:    max,
		Dt:     dt,
	}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}
	if err := os.WriteFile(filepath.Join(dir, SidecarName), data, 0644); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}
	return nil
}

// ResultDir returns the directory SaveResults uses for one output movie.
func ResultDir(dir, result, name string) string {
	return filepath.Join(dir, result+"_"+name)
}

// SaveResults writes the four result movies to phase_<name>, period_<name>,
// power_<name> and amplitude_<name> below dir.
func SaveResults(res *models.ResultSet, name, dir string, dt float64) error {
	return res.Each(func(result string, movie *models.Movie) error {
		return WriteDir(ResultDir(dir, result, name), movie, dt)
	})
}

// valueRange returns the finite minimum and maximum, or (0, 0) for a movie
// without finite values.
func valueRange(data []float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > max {
		return 0, 0
	}
	return min, max
}
