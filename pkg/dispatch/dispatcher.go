// Package dispatch applies the per pixel wavelet pipeline to whole movies,
// splitting the rows over a pool of goroutines.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"spyboat/internal/fault"
	"spyboat/internal/models"
	"spyboat/pkg/wavelet"
)

// Options controls a dispatch run.
type Options struct {
	// Workers is the requested number of parallel blocks, must be positive
	Workers int

	// AvailableCores caps Workers. Zero means runtime.NumCPU().
	AvailableCores int

	// Logger receives warnings and progress, slog.Default() when nil
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) cores() int {
	if o.AvailableCores > 0 {
		return o.AvailableCores
	}
	return runtime.NumCPU()
}

// Transform analyses every pixel of movie sequentially. It is the reference
// RunParallel must reproduce for any worker count.
func Transform(ctx context.Context, movie *models.Movie, params wavelet.Parameters, logger *slog.Logger) (*models.ResultSet, error) {
	return RunParallel(ctx, movie, params, Options{Workers: 1, AvailableCores: 1, Logger: logger})
}

// RunParallel analyses every pixel of movie, splitting its rows into at most
// min(Workers, AvailableCores) contiguous blocks processed concurrently. The
// first failing block cancels the others and its error is returned. Block
// results are written back by block index, so the output does not depend on
// the order in which workers finish.
func RunParallel(ctx context.Context, movie *models.Movie, params wavelet.Parameters, opts Options) (*models.ResultSet, error) {
	logger := opts.logger()

	if opts.Workers <= 0 {
		return nil, fmt.Errorf("%w: requested %d workers, need at least 1", fault.ErrInvalidWorkers, opts.Workers)
	}
	if movie == nil || movie.Frames == 0 || movie.Height == 0 || movie.Width == 0 {
		return nil, fmt.Errorf("%w: movie must be a non-empty (frames, rows, columns) array", fault.ErrInvalidInput)
	}

	frames, height, width := movie.Frames, movie.Height, movie.Width
	p, err := params.Sanitize(frames, logger)
	if err != nil {
		return nil, err
	}
	tr, err := wavelet.NewTransform(p, frames)
	if err != nil {
		return nil, err
	}

	workers := EffectiveWorkers(opts.Workers, opts.cores(), logger)
	blocks := SplitRows(height, workers)
	CheckMemory(DetectHost(), EstimateBytes(frames, height, width), logger)

	logger.Info("starting wavelet transform",
		"frames", frames, "height", height, "width", width,
		"workers", len(blocks), "tmin", p.Tmin, "tmax", p.Tmax, "nT", p.NT,
		"method", p.Method)

	results := make([]*models.ResultSet, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range blocks {
		sub := movie.Rows(b.Y0, b.Y1)
		g.Go(func() error {
			res, err := transformBlock(gctx, sub, tr, b, logger)
			if err != nil {
				return err
			}
			results[b.Index] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := models.NewResultSet(frames, height, width)
	for _, b := range blocks {
		out.PutRows(b.Y0, results[b.Index])
	}
	logger.Info("wavelet transform done", "pixels", height*width)
	return out, nil
}

// transformBlock runs the pipeline over every pixel of sub, a block of rows
// starting at b.Y0 in the full movie. Errors name the pixel in full movie
// coordinates.
func transformBlock(ctx context.Context, sub *models.Movie, tr *wavelet.Transform, b models.Block, logger *slog.Logger) (*models.ResultSet, error) {
	ws := tr.NewWorkspace()
	res := models.NewResultSet(sub.Frames, sub.Height, sub.Width)
	signal := make([]float64, sub.Frames)

	lastPercent := 0
	for y := 0; y < sub.Height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < sub.Width; x++ {
			signal = sub.Pixel(signal, y, x)
			ridge, err := ws.Analyze(signal)
			if err != nil {
				return nil, fmt.Errorf("pixel (y=%d, x=%d): %w", b.Y0+y, x, err)
			}
			res.Phase.SetPixel(y, x, ridge.Phase)
			res.Period.SetPixel(y, x, ridge.Period)
			res.Power.SetPixel(y, x, ridge.Power)
			res.Amplitude.SetPixel(y, x, ridge.Amplitude)
		}

		if percent := 100 * (y + 1) / sub.Height; percent/10 > lastPercent/10 {
			lastPercent = percent
			logger.Debug("block progress", "block", b.Index, "percent", percent)
		}
	}
	return res, nil
}

// EffectiveWorkers clamps the requested worker count to the available
// cores, logging a warning when it does.
func EffectiveWorkers(requested, available int, logger *slog.Logger) int {
	if available < 1 {
		available = 1
	}
	if requested > available {
		if logger != nil {
			logger.Warn("more workers requested than cores available, clamping",
				"requested", requested, "workers", available)
		}
		return available
	}
	return requested
}

// SplitRows partitions height rows into n contiguous, near equal blocks. The
// first height mod n blocks get one extra row. Empty blocks are dropped, so
// fewer than n blocks come back when height < n.
func SplitRows(height, n int) []models.Block {
	if n < 1 {
		n = 1
	}
	size, extra := height/n, height%n
	blocks := make([]models.Block, 0, n)
	y := 0
	for i := 0; i < n; i++ {
		rows := size
		if i < extra {
			rows++
		}
		if rows == 0 {
			break
		}
		blocks = append(blocks, models.Block{Index: len(blocks), Y0: y, Y1: y + rows})
		y += rows
	}
	return blocks
}
