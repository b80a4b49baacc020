package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"spyboat/pkg/dispatch"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the host inventory used to size worker pools",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Requested worker count to clamp",
				Value: 1,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			host := dispatch.DetectHost()
			slog.Info("host", "inventory", host)

			workers := dispatch.EffectiveWorkers(cmd.Int("workers"), host.NumCPU, slog.Default())
			slog.Info("effective workers", "requested", cmd.Int("workers"), "effective", workers)

			return nil
		},
	}
}
