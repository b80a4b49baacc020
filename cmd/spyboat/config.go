package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"spyboat/pkg/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration files",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a configuration file with example values",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "File to write",
						Value: "config.yaml",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.String("path")
					if err := config.CreateDefaultConfigFile(path); err != nil {
						return err
					}
					slog.Info("wrote configuration", "path", path)

					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Load and validate a configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "File to check",
						Value: "config.yaml",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, err := config.LoadConfig(cmd.String("path"))
					if err != nil {
						return err
					}
					if err := cfg.Validate(); err != nil {
						return err
					}
					params, err := cfg.WaveletParameters()
					if err != nil {
						return err
					}
					slog.Info("configuration is valid",
						"dt", params.Dt, "tmin", params.Tmin, "tmax", params.Tmax, "nT", params.NT,
						"workers", cfg.Processing.NumWorkers, "masking", cfg.Masking.Mode)

					return nil
				},
			},
		},
	}
}
