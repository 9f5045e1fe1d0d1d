package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockout-app/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stockout",
	Short: "Retail stockout risk scoring",
	Long: `Score retail inventory exports for 14-day stockout risk and estimate
the economic loss of each row.

Available subcommands:
  serve - Run the upload web app and JSON API
  score - Score one CSV file from the command line`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, scoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
