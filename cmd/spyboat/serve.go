package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"spyboat/internal/rest"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the transform over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8080",
			},
			&cli.BoolFlag{Name: "debug", Usage: "Run gin in debug mode"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if !cmd.Bool("debug") {
				gin.SetMode(gin.ReleaseMode)
			}

			return rest.Serve(cmd.String("addr"), nil)
		},
	}
}
