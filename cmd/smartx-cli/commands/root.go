package commands

import (
	"context"
	"fmt"
	"os"

	"smartx-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	asTable    *bool
	dumpDir    *string
)

var rootCmd = &cobra.Command{
	Use:   "smartx-cli",
	Short: "smartx-cli logs into the student portal and prints the scraped data.",
	// errors are printed by ExecuteContext
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages.")
	asTable = rootCmd.PersistentFlags().Bool("table", false, "Print tables instead of json.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every http request and response to this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
