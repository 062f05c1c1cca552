package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mecfleet/internal/calib"
	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/logger"
	"github.com/rileyhilliard/mecfleet/internal/ui"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices found under the fleet root",
	Long: `List every device directory under the fleet root with its station,
address, calibration eligibility and assigned calibration archives.

--scope narrows the listing; without it every device is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return listDevices(afero.NewOsFs(), cfg, flags.Scope, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func listDevices(fs afero.Fs, cfg *config.Config, scope []string, out io.Writer) error {
	log := logger.NewEnvLogger("[registry]")
	creds := device.Credentials{User: cfg.Credentials.User}

	reg, err := device.Build(fs, cfg.Root, creds, log)
	if err != nil {
		return err
	}
	if _, err := reg.AssignArchives(fs, cfg.Calibration.Dir, log); err != nil {
		return err
	}

	ids := reg.IDs()
	if len(scope) > 0 {
		if ids, err = ResolveScope(scope, reg, log); err != nil {
			return err
		}
	}

	eligible := calib.ParseEligibility(cfg.Calibration.Eligible, log)

	var rows [][]string
	for _, id := range ids {
		dev, ok := reg.Get(id)
		if !ok {
			continue
		}
		mark := ui.SymbolSkipped
		if eligible.Contains(id) {
			mark = ui.SymbolSuccess
		}
		rows = append(rows, []string{
			dev.PaddedID(),
			dev.Station,
			dev.Address,
			mark,
			strconv.Itoa(len(dev.Archives())),
		})
	}

	if len(rows) == 0 {
		fmt.Fprintf(out, "No devices found in %s\n", cfg.Root)
		return nil
	}

	columns := []ui.TableColumn{
		{Title: "ID", Width: 5},
		{Title: "Station", Width: 16},
		{Title: "Address", Width: 16},
		{Title: "Calib", Width: 6},
		{Title: "Archives", Width: 9},
	}
	fmt.Fprintln(out, ui.RenderSimpleTable(columns, rows))
	fmt.Fprintf(out, "%d of %d devices\n", len(rows), len(reg))
	return nil
}
