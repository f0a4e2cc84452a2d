package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"horse.fit/transgate/internal/cli"
	"horse.fit/transgate/internal/gateway"
	"horse.fit/transgate/internal/language"
)

const oneShotTimeout = 2 * time.Minute

func newTranslateCmd(envLoader *cli.EnvLoader) *cobra.Command {
	var (
		sourceLang string
		targetLang string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text once and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(envLoader)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			// One-shot runs skip history; a missing database must not
			// block a translation from the terminal.
			rt, err := Build(ctx, cfg, logger, BuildOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.Start(ctx)

			target := strings.TrimSpace(targetLang)
			if target == "" {
				target = cfg.DefaultTargetLang
			}

			result, err := rt.Gateway.Translate(ctx, strings.Join(args, " "), sourceLang, target)
			if err != nil {
				return err
			}

			if asJSON {
				encoded, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return nil
			}

			if !result.Success {
				return fmt.Errorf("translation failed: %s", result.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source", language.Auto, "Source language code or auto")
	cmd.Flags().StringVar(&targetLang, "target", "", "Target language code (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")

	return cmd
}

func newLanguagesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List catalogued target languages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := gateway.LanguageOptions()

			if asJSON {
				encoded, err := json.MarshalIndent(options, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return nil
			}

			for _, option := range options {
				if option.Native != "" && option.Native != option.Label {
					fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s (%s)\n", option.Code, option.Label, option.Native)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", option.Code, option.Label)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the language list as JSON")
	return cmd
}
