package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"spyboat/pkg/movieio"
	"spyboat/pkg/synth"
)

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "Write a synthetic test movie",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Movie directory to create",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Movie kind: sine, phase-shift, period-shift",
				Value: string(synth.KindSine),
			},
			&cli.IntFlag{Name: "frames", Usage: "Number of frames", Value: 100},
			&cli.IntFlag{Name: "height", Usage: "Frame height in pixels", Value: 32},
			&cli.IntFlag{Name: "width", Usage: "Frame width in pixels", Value: 32},
			&cli.FloatFlag{Name: "period", Usage: "Oscillation period", Value: 30},
			&cli.FloatFlag{Name: "dt", Usage: "Sampling interval", Value: 1},
			&cli.FloatFlag{Name: "noise", Usage: "Uniform noise amplitude, 0 for none"},
			&cli.Uint32Flag{Name: "seed", Usage: "Noise seed, 0 for a time based seed"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dt := cmd.Float("dt")

			movie, err := synth.Generate(
				synth.Kind(cmd.String("kind")),
				cmd.Int("frames"), cmd.Int("height"), cmd.Int("width"),
				cmd.Float("period"), dt,
			)
			if err != nil {
				return err
			}
			if noise := cmd.Float("noise"); noise > 0 {
				synth.AddNoise(movie, noise, cmd.Uint32("seed"))
			}

			out := cmd.String("output")
			if err := movieio.WriteDir(out, movie, dt); err != nil {
				return err
			}
			slog.Info("wrote synthetic movie", "kind", cmd.String("kind"), "directory", out, "frames", movie.Frames)

			return nil
		},
	}
}
