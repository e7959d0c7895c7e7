package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/reviewd/internal/app"
	"github.com/tildaslashalef/reviewd/internal/server"
	"github.com/tildaslashalef/reviewd/internal/utils"
)

// ServeCommand returns the CLI command for running the HTTP API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the review HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides configuration)",
			},
		},
		Action: func(c *cli.Context) error {
			application, ok := c.App.Metadata["app"].(*app.App)
			if !ok {
				return fmt.Errorf("application not initialized")
			}

			cfg := application.Config
			if port := c.String("port"); port != "" {
				cfg.Server.Port = port
			}

			srv := server.NewServer(cfg, application.Review, application.Logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			utils.PrintInfo(fmt.Sprintf("Serving on %s:%s", cfg.Server.Host, cfg.Server.Port))
			if cfg.MockMode() {
				utils.PrintWarning("No API key configured, running with demo analysis")
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				application.Logger.Info("received signal, shutting down", "signal", sig.String())
				return srv.Stop()
			}
		},
	}
}
