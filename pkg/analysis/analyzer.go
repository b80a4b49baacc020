// Package analysis runs a complete spyboat analysis: loading, preprocessing,
// masking, the parallel wavelet transform and saving of the results.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"spyboat/internal/fault"
	"spyboat/internal/models"
	"spyboat/pkg/config"
	"spyboat/pkg/dispatch"
	"spyboat/pkg/mask"
	"spyboat/pkg/movieio"
	"spyboat/pkg/preprocess"
	"spyboat/pkg/wavelet"
)

// Params holds the input and configuration of one analysis run.
type Params struct {
	// InputDir is a movie directory as read by movieio.ReadDir.
	// Ignored when Movie is set.
	InputDir string

	// Movie is an in-memory input movie. It is not modified.
	Movie *models.Movie

	// Name is appended to the result directory names
	Name string

	// Config carries the wavelet, processing, masking and output settings.
	// An empty output directory skips saving.
	Config *config.Config

	// Logger receives the step banners, slog.Default() when nil
	Logger *slog.Logger
}

// Stats summarizes the unmasked values of one result movie.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary describes a finished run.
type Summary struct {
	Frames int `json:"frames"`
	Height int `json:"height"`
	Width  int `json:"width"`

	// Tmin and Tmax are the effective period range after correction
	Tmin float64 `json:"tmin"`
	Tmax float64 `json:"tmax"`

	// MaskedFraction is the share of masked result elements
	MaskedFraction float64 `json:"maskedFraction"`

	Results map[string]Stats `json:"results"`
}

// Analyzer handles one analysis run.
//
// The run consists of the following steps:
// 1. Loading the input movie
// 2. Down-sampling and Gaussian smoothing
// 3. Creating the background mask from the preprocessed movie
// 4. Running the wavelet transform over all pixels in parallel
// 5. Masking the four result movies
// 6. Saving results and computing the summary
type Analyzer struct {
	params *Params
	logger *slog.Logger

	movie        *models.Movie
	preprocessed *models.Movie
	mask         *models.Mask
	results      *models.ResultSet
	waveletCfg   wavelet.Parameters
	summary      Summary
}

// NewAnalyzer creates a new analyzer for the given parameters.
func NewAnalyzer(params *Params) *Analyzer {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if params.Config == nil {
		params.Config = config.DefaultConfig()
	}
	if params.Name == "" {
		params.Name = "spyboat"
	}
	return &Analyzer{params: params, logger: logger}
}

// Process runs the complete analysis pipeline.
func (a *Analyzer) Process(ctx context.Context) error {
	cfg := a.params.Config

	a.logger.Info("Step 1: Loading input movie...")
	if err := a.loadMovie(); err != nil {
		return fmt.Errorf("failed to load movie: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Masking.Mode == config.MaskFixed {
		if frame := *cfg.Masking.Frame; frame < 0 || frame >= a.movie.Frames {
			return fmt.Errorf("%w: mask frame %d requested, movie has %d frames",
				fault.ErrFrameOutOfRange, frame, a.movie.Frames)
		}
	}
	p, err := cfg.WaveletParameters()
	if err != nil {
		return err
	}
	if a.waveletCfg, err = p.Sanitize(a.movie.Frames, a.logger); err != nil {
		return err
	}

	a.logger.Info("Step 2: Preprocessing input movie...")
	if err := a.preprocess(); err != nil {
		return fmt.Errorf("failed to preprocess movie: %w", err)
	}
	if cfg.Output.SavePreprocessed && cfg.Output.Directory != "" {
		if err := movieio.WriteDir(movieio.ResultDir(cfg.Output.Directory, "preprocessed", a.params.Name), a.preprocessed, p.Dt); err != nil {
			return fmt.Errorf("failed to save preprocessed movie: %w", err)
		}
	}

	a.logger.Info("Step 3: Creating mask...", "mode", cfg.Masking.Mode)
	if err := a.createMask(); err != nil {
		return fmt.Errorf("failed to create mask: %w", err)
	}

	a.logger.Info("Step 4: Running wavelet transform...", "workers", cfg.Processing.NumWorkers)
	a.logger.Debug("host", "host", dispatch.DetectHost())
	a.results, err = dispatch.RunParallel(ctx, a.preprocessed, a.waveletCfg, dispatch.Options{
		Workers: cfg.Processing.NumWorkers,
		Logger:  a.logger,
	})
	if err != nil {
		return fmt.Errorf("wavelet transform failed: %w", err)
	}

	if a.mask != nil {
		a.logger.Info("Step 5: Masking results...", "fillValue", cfg.Masking.FillValue)
		if err := mask.ApplyToResults(a.results, a.mask, cfg.Masking.FillValue); err != nil {
			return fmt.Errorf("failed to mask results: %w", err)
		}
	}

	if dir := cfg.Output.Directory; dir != "" {
		a.logger.Info("Step 6: Saving results...", "directory", dir)
		if err := movieio.SaveResults(a.results, a.params.Name, dir, p.Dt); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
	}

	a.summary = a.summarize()
	a.logger.Info("Analysis complete", "maskedFraction", a.summary.MaskedFraction)
	return nil
}

func (a *Analyzer) loadMovie() error {
	if a.params.Movie != nil {
		a.movie = a.params.Movie
		return nil
	}
	if a.params.InputDir == "" {
		return fmt.Errorf("%w: input movie", fault.ErrMissingParameter)
	}

	movie, meta, err := movieio.ReadDir(a.params.InputDir)
	if err != nil {
		return err
	}
	if meta != nil && meta.Dt > 0 && a.params.Config.Wavelet.Dt == 0 {
		a.logger.Info("using sampling interval from movie metadata", "dt", meta.Dt)
		a.params.Config.Wavelet.Dt = meta.Dt
	}
	a.movie = movie
	a.logger.Info("loaded movie", "frames", movie.Frames, "height", movie.Height, "width", movie.Width)
	return nil
}

func (a *Analyzer) preprocess() error {
	cfg := a.params.Config.Preprocessing
	opts := preprocess.Options{Workers: a.params.Config.Processing.NumWorkers}

	movie := a.movie
	if cfg.Rescale > 0 && cfg.Rescale < 100 {
		var err error
		if movie, err = preprocess.Downsample(movie, cfg.Rescale/100, opts); err != nil {
			return err
		}
		a.logger.Info("down-sampled movie", "percent", cfg.Rescale, "height", movie.Height, "width", movie.Width)
	}
	if cfg.GaussSigma > 0 {
		movie = preprocess.GaussianBlur(movie, cfg.GaussSigma, opts)
		a.logger.Info("blurred movie", "sigma", cfg.GaussSigma)
	}
	a.preprocessed = movie
	return nil
}

func (a *Analyzer) createMask() error {
	cfg := a.params.Config.Masking
	if cfg.Mode == "" || cfg.Mode == config.MaskNone {
		return nil
	}
	th, err := a.params.Config.MaskThreshold()
	if err != nil {
		return err
	}
	if cfg.Mode == config.MaskFixed {
		a.mask, err = mask.CreateFixedMask(a.preprocessed, *cfg.Frame, th, a.logger)
	} else {
		a.mask, err = mask.CreateDynamicMask(a.preprocessed, th, a.logger)
	}
	return err
}

// summarize computes per result statistics over the unmasked elements.
func (a *Analyzer) summarize() Summary {
	m := a.preprocessed
	s := Summary{
		Frames:  m.Frames,
		Height:  m.Height,
		Width:   m.Width,
		Tmin:    a.waveletCfg.Tmin,
		Tmax:    a.waveletCfg.Tmax,
		Results: make(map[string]Stats, len(models.ResultNames)),
	}

	keep := a.unmasked()
	if total := len(keep); total > 0 {
		masked := 0
		for _, k := range keep {
			if !k {
				masked++
			}
		}
		s.MaskedFraction = float64(masked) / float64(total)
	}

	for name, movie := range a.results.Named() {
		values := make([]float64, 0, len(movie.Data))
		for i, v := range movie.Data {
			if keep[i] {
				values = append(values, v)
			}
		}
		s.Results[name] = describe(values)
	}
	return s
}

// unmasked expands the mask to one flag per movie element, true when the
// element is kept.
func (a *Analyzer) unmasked() []bool {
	m := a.preprocessed
	keep := make([]bool, len(m.Data))
	size := m.FrameSize()
	for i := range keep {
		switch {
		case a.mask == nil:
			keep[i] = true
		case a.mask.Fixed():
			keep[i] = !a.mask.Data[i%size]
		default:
			keep[i] = !a.mask.Data[i]
		}
	}
	return keep
}

func describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	slices.Sort(values)
	return Stats{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Min:    values[0],
		Max:    values[len(values)-1],
	}
}

// Results returns the masked result movies of the last run.
func (a *Analyzer) Results() *models.ResultSet {
	return a.results
}

// Mask returns the mask of the last run, nil when masking was disabled.
func (a *Analyzer) Mask() *models.Mask {
	return a.mask
}

// Preprocessed returns the movie the transform ran on.
func (a *Analyzer) Preprocessed() *models.Movie {
	return a.preprocessed
}

// GetSummary returns the statistics of the last run.
func (a *Analyzer) GetSummary() Summary {
	return a.summary
}
