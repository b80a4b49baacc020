package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"spyboat/pkg/analysis"
	"spyboat/pkg/config"
)

var errMissingInput = errors.New("an input movie directory is required")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Run the pixel-wise wavelet transform over a movie directory",
		ArgsUsage: "[movie directory]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Directory of frame_NNNN.tif files (or the first argument)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file; flags override its values",
				Value:   "config.yaml",
			},

			// Wavelet parameters.
			&cli.FloatFlag{Name: "dt", Usage: "Sampling interval"},
			&cli.FloatFlag{Name: "tmin", Usage: "Smallest period"},
			&cli.FloatFlag{Name: "tmax", Usage: "Largest period"},
			&cli.IntFlag{Name: "nt", Usage: "Number of periods scanned"},
			&cli.FloatFlag{Name: "tcutoff", Usage: "Sinc detrending cutoff period"},
			&cli.FloatFlag{Name: "win-size", Usage: "Amplitude normalization window"},

			// Processing.
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of row blocks processed in parallel",
			},
			&cli.StringFlag{Name: "method", Usage: "Convolution method: fft, direct"},

			// Preprocessing.
			&cli.FloatFlag{Name: "rescale", Usage: "Down-sampling percentage, 0 or 100 to disable"},
			&cli.FloatFlag{Name: "gauss-sigma", Usage: "Gaussian blur width in pixels, 0 to disable"},

			// Masking.
			&cli.StringFlag{Name: "masking", Usage: "Masking mode: none, fixed, dynamic"},
			&cli.IntFlag{Name: "mask-frame", Usage: "Reference frame of a fixed mask"},
			&cli.StringFlag{Name: "mask-threshold", Usage: "Mask threshold, a number or otsu"},
			&cli.FloatFlag{Name: "fill-value", Usage: "Value written into masked results"},

			// Output.
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory receiving the result movies",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Suffix of the result directory names",
				Value: "spyboat",
			},
			&cli.BoolFlag{Name: "save-preprocessed", Usage: "Also write the preprocessed input movie"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input := cmd.String("input")
			if input == "" {
				input = cmd.Args().First()
			}
			if input == "" {
				return errMissingInput
			}

			cfg, err := config.LoadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)

			analyzer := analysis.NewAnalyzer(&analysis.Params{
				InputDir: input,
				Name:     cmd.String("name"),
				Config:   cfg,
				Logger:   slog.Default(),
			})

			start := time.Now()
			if err := analyzer.Process(ctx); err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			summary := analyzer.GetSummary()
			slog.Info("analysis completed",
				"elapsed", time.Since(start).Round(time.Millisecond),
				"frames", summary.Frames,
				"height", summary.Height,
				"width", summary.Width,
				"tmin", summary.Tmin,
				"tmax", summary.Tmax,
				"maskedFraction", summary.MaskedFraction,
			)
			for _, key := range []string{"period", "power", "amplitude"} {
				s := summary.Results[key]
				slog.Info("result", "name", key, "mean", s.Mean, "median", s.Median, "min", s.Min, "max", s.Max)
			}
			if cfg.Output.Directory != "" {
				slog.Info("results saved", "directory", cfg.Output.Directory)
			}

			return nil
		},
	}
}

// applyFlags copies every explicitly set flag over the loaded configuration.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("dt") {
		cfg.Wavelet.Dt = cmd.Float("dt")
	}
	if cmd.IsSet("tmin") {
		v := cmd.Float("tmin")
		cfg.Wavelet.Tmin = &v
	}
	if cmd.IsSet("tmax") {
		cfg.Wavelet.Tmax = cmd.Float("tmax")
	}
	if cmd.IsSet("nt") {
		cfg.Wavelet.NT = cmd.Int("nt")
	}
	if cmd.IsSet("tcutoff") {
		v := cmd.Float("tcutoff")
		cfg.Wavelet.TCutoff = &v
	}
	if cmd.IsSet("win-size") {
		v := cmd.Float("win-size")
		cfg.Wavelet.WinSize = &v
	}
	if cmd.IsSet("workers") {
		cfg.Processing.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("method") {
		cfg.Processing.Convolution = cmd.String("method")
	}
	if cmd.IsSet("rescale") {
		cfg.Preprocessing.Rescale = cmd.Float("rescale")
	}
	if cmd.IsSet("gauss-sigma") {
		cfg.Preprocessing.GaussSigma = cmd.Float("gauss-sigma")
	}
	if cmd.IsSet("masking") {
		cfg.Masking.Mode = cmd.String("masking")
	}
	if cmd.IsSet("mask-frame") {
		v := cmd.Int("mask-frame")
		cfg.Masking.Frame = &v
	}
	if cmd.IsSet("mask-threshold") {
		cfg.Masking.Threshold = cmd.String("mask-threshold")
	}
	if cmd.IsSet("fill-value") {
		cfg.Masking.FillValue = cmd.Float("fill-value")
	}
	if cmd.IsSet("output") {
		cfg.Output.Directory = cmd.String("output")
	}
	if cmd.IsSet("save-preprocessed") {
		cfg.Output.SavePreprocessed = cmd.Bool("save-preprocessed")
	}
}
