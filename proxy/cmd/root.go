package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wiretap-proxy/wiretap/internal/config"
	"github.com/wiretap-proxy/wiretap/internal/logging"
)

var (
	cfg         *config.Config
	logger      *logging.Logger
	verboseFlag bool
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "wiretap",
	Short: "Observing man-in-the-middle TCP proxy",
	Long: `wiretap - an observation-only man-in-the-middle proxy.

It accepts client connections, relays every byte unmodified to the
configured target, and records a timestamped capture log of the
traffic in both directions. The capture is served over a local
inspection API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()

		level := logging.ParseLevel(cfg.LogLevel)
		if verboseFlag {
			level = logging.DebugLevel
		}

		format := logging.FormatConsole
		if jsonFlag {
			format = logging.FormatJSON
		}

		logger = logging.NewWithFormat(level, format)
	},
}

func init() {
	// Disable default completion and help commands
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging (debug level)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output logs in JSON format")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
