// Command storefront runs the storefront backend and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/config"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/logx"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "FC Barcelona storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, cartCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig is shared by every subcommand.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logx.New(cfg.Environment, cfg.LogLevel), nil
}
