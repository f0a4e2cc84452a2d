package app

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"horse.fit/transgate/internal/cli"
	"horse.fit/transgate/internal/httpapi"
)

func newServeCmd(envLoader *cli.EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the translation gateway HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(envLoader)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := Build(ctx, cfg, logger, BuildOptions{WithHistory: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.Start(ctx)

			var historyReader httpapi.HistoryReader
			if rt.History != nil {
				historyReader = rt.History
			}

			server := httpapi.NewServer(rt.Gateway, historyReader, logger, httpapi.Options{
				Host:              cfg.HTTPHost,
				Port:              cfg.HTTPPort,
				DefaultTargetLang: cfg.DefaultTargetLang,
			})
			return server.Start(ctx)
		},
	}
}
