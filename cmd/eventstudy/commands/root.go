package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eventstudy",
	Short: "Earnings event-study service",
	Long: `Earnings event-study service.

Computes abnormal returns around earnings announcements: reconciles
announcement records across providers, normalizes EPS against regulator
facts, detects YoY breakpoints, and measures CAR over event windows with
a market-model option.

Usage:
  go run ./cmd/eventstudy [command]

Examples:
  go run ./cmd/eventstudy api
  go run ./cmd/eventstudy collect --symbol AAPL
  go run ./cmd/eventstudy study --symbol AAPL --benchmark SPY`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
