// Package cmd holds the phonebook command tree. Every command loads the
// configuration from the environment (and .env) before it runs.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ypb/phonebook/internal/config"
	"github.com/ypb/phonebook/pkg/logger"
)

// Version is set at build time with -ldflags "-X github.com/ypb/phonebook/cmd.Version=...".
var Version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "phonebook",
	Short:         "Community phone book: pages, search and phone-number login",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		c, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger.SetFormat(c.Log.Format)
		logger.Init(c.Log.Level)
		logger.Debugf("startup: LOG_LEVEL=%s store=%s", logger.LevelString(), c.Store.Driver)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, importCmd, duplicatesCmd, exportPhonesCmd, searchCmd, versionCmd)
}

// Execute runs the root command. Exit code 1 indicates error.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "phonebook", Version)
	},
}
