package cmd

import (
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/logging"
)

var (
	verbose bool
	debug   bool
	Logger  logging.Logger

	RootCmd = &cobra.Command{
		Use:   "casefile",
		Short: "Encrypted incident investigation sessions",
		Long: `Casefile keeps incident investigations in encrypted sessions: a structured
scratchpad for findings, raw artifacts (logs, metrics, traces) and portable
export bundles, all sealed with a per-session passphrase.

Run 'casefile help <command>' for details on a specific command.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logging.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
}
