package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"horse.fit/transgate/internal/cli"
	"horse.fit/transgate/internal/config"
	"horse.fit/transgate/internal/logging"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transgate",
		Short: "Resilient translation gateway over public and local providers",
		Long: `transgate routes translation requests through an ordered provider
chain (Lingva, MyMemory, a local engine) behind a serialized queue with
adaptive rate limiting and a bounded result cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	envLoader := cli.AddEnvFlag(root, ".env", "Path to the .env file")

	root.AddCommand(
		newServeCmd(envLoader),
		newTranslateCmd(envLoader),
		newLanguagesCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "transgate %s (%s)\n", version, commit)
		},
	}
}

// bootstrap loads the environment, configuration, and logger shared by the
// service commands.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	envLoader.LoadOptional()

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}
