package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/ui"
)

var (
	cfgFile string
	flags   GlobalFlags
)

var rootCmd = &cobra.Command{
	Use:   "mecfleet",
	Short: "Bulk sync, command execution and calibration for MEC device fleets",
	Long: `mecfleet runs one action against every device in a scope and prints a
deduplicated pass/fail summary.

Devices are discovered from the fleet root: one directory per device named
<id>-<station>-<address>, for example 001-K12+300-10.0.1.21.

Examples:
  mecfleet remote-exec -s 1-20 "df -h /home/mec"
  mecfleet pull-etc-bundle -s 3,5,7
  mecfleet deploy-calibration -s all --dry-run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColors(flags.NoColor)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.ConfigFileName+" or ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile+")")
	AddGlobalFlags(pf, &flags)
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command. Interrupts cancel the run context so no new
// devices are started; devices already running finish first.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
