// Package preprocess prepares input movies for the wavelet transform with
// per frame spatial operations: down-sampling and Gaussian smoothing.
package preprocess

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"spyboat/internal/fault"
	"spyboat/internal/models"
)

// ProgressCallback is called after each processed frame.
type ProgressCallback func(completed, total int)

// Options configures the frame workers.
type Options struct {
	// Workers processing frames concurrently, runtime.NumCPU() when zero
	Workers int

	Progress ProgressCallback
}

// Downsample rescales every frame by factor, 0 < factor <= 1. The new frame
// size is round(H·factor) × round(W·factor), at least 1×1, and each output
// pixel is bilinearly interpolated at its mapped centre.
func Downsample(movie *models.Movie, factor float64, opts Options) (*models.Movie, error) {
	if factor <= 0 || math.IsNaN(factor) {
		return nil, fmt.Errorf("%w: rescale factor must be positive, got %g", fault.ErrInvalidParameter, factor)
	}
	if factor > 1 {
		return nil, fmt.Errorf("%w: upscaling is not supported (factor %g)", fault.ErrInvalidParameter, factor)
	}

	height := max(1, int(math.Round(float64(movie.Height)*factor)))
	width := max(1, int(math.Round(float64(movie.Width)*factor)))
	out := models.NewMovie(movie.Frames, height, width)

	sy := float64(movie.Height) / float64(height)
	sx := float64(movie.Width) / float64(width)
	forEachFrame(movie.Frames, opts, func(t int) {
		src, dst := movie.Frame(t), out.Frame(t)
		for y := 0; y < height; y++ {
			fy := clamp((float64(y)+0.5)*sy-0.5, 0, float64(movie.Height-1))
			y0 := int(fy)
			y1 := min(y0+1, movie.Height-1)
			wy := fy - float64(y0)
			for x := 0; x < width; x++ {
				fx := clamp((float64(x)+0.5)*sx-0.5, 0, float64(movie.Width-1))
				x0 := int(fx)
				x1 := min(x0+1, movie.Width-1)
				wx := fx - float64(x0)

				top := src[y0*movie.Width+x0]*(1-wx) + src[y0*movie.Width+x1]*wx
				bottom := src[y1*movie.Width+x0]*(1-wx) + src[y1*movie.Width+x1]*wx
				dst[y*width+x] = top*(1-wy) + bottom*wy
			}
		}
	})
	return out, nil
}

// GaussianBlur smooths every frame with a separable Gaussian of standard
// deviation sigma pixels, truncated at 4 sigma. Borders repeat the nearest
// edge pixel. sigma <= 0 returns an unchanged copy.
func GaussianBlur(movie *models.Movie, sigma float64, opts Options) *models.Movie {
	out := movie.Clone()
	if sigma <= 0 {
		return out
	}

	kernel := GaussianKernel(sigma)
	forEachFrame(movie.Frames, opts, func(t int) {
		tmp := make([]float64, movie.FrameSize())
		convolveRows(tmp, movie.Frame(t), movie.Height, movie.Width, kernel)
		convolveCols(out.Frame(t), tmp, movie.Height, movie.Width, kernel)
	})
	return out
}

// GaussianKernel returns the normalized 1-D kernel of radius ceil(4·sigma).
func GaussianKernel(sigma float64) []float64 {
	r := int(math.Ceil(4 * sigma))
	k := make([]float64, 2*r+1)
	var sum float64
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func convolveRows(dst, src []float64, height, width int, k []float64) {
	r := len(k) / 2
	for y := 0; y < height; y++ {
		row := src[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			var s float64
			for i, w := range k {
				s += w * row[clampIndex(x+i-r, width)]
			}
			dst[y*width+x] = s
		}
	}
}

func convolveCols(dst, src []float64, height, width int, k []float64) {
	r := len(k) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var s float64
			for i, w := range k {
				s += w * src[clampIndex(y+i-r, height)*width+x]
			}
			dst[y*width+x] = s
		}
	}
}

// forEachFrame runs fn for every frame index on a pool of goroutines.
// Frames are disjoint, so fn needs no locking.
func forEachFrame(frames int, opts Options, fn func(t int)) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, frames)

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				fn(t)
				if opts.Progress != nil {
					mu.Lock()
					completed++
					opts.Progress(completed, frames)
					mu.Unlock()
				}
			}
		}()
	}
	for t := 0; t < frames; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
