// Package cli wires the cobra command tree for the skycast binary.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/logger"
	"github.com/skycast-app/skycast/internal/prefs"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skycast",
	Short: "Weather assistant for your terminal",
	Long: `skycast answers weather questions for a named city.

Ask in plain language with 'skycast chat', or fetch conditions directly with
'skycast current' and 'skycast forecast'. Favorite and recently searched
cities are remembered between runs.`,
	SilenceUsage: true,
}

// Execute runs the root command; it is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/skycast/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func initConfig() {
	c, err := config.Load(cfgFile)
	cobra.CheckErr(err)
	cfg = c

	if verbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel(cfg.LogLevel)
	}
}

// openStore opens the preference store. A broken store costs favorites and
// recents, never the whole command.
func openStore() *prefs.Store {
	s, err := prefs.Open(cfg.Store.Path)
	if err != nil {
		logger.L.Warn("preference store unavailable", "path", cfg.Store.Path, "error", err)
		return nil
	}
	return s
}
