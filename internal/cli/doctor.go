package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/exec"
	"github.com/rileyhilliard/mecfleet/internal/logger"
	"github.com/rileyhilliard/mecfleet/internal/sync"
	"github.com/rileyhilliard/mecfleet/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check local tools, config and fleet layout",
	Long: `Check that sshpass, rsync and ssh are installed, that the config loads,
and that the fleet root and calibration directory look right.

With --reach, every device in --scope (default: all) gets an ssh login
check using the configured credentials.

Examples:
  mecfleet doctor
  mecfleet doctor --dir ./project-etc
  mecfleet doctor --reach -s 1-20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd, afero.NewOsFs(), os.Stdout)
	},
}

var doctorReach bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorReach, "reach", false, "also check ssh login on each device in scope")
	rootCmd.AddCommand(doctorCmd)
}

// lookupTool, toolVersion and probeDevice are swapped in tests.
var (
	lookupTool  = sync.FindTool
	toolVersion = sync.ToolVersion
	probeDevice = func(dev *device.Descriptor, timeout time.Duration) error {
		return (&exec.Prober{Timeout: timeout}).Probe(dev)
	}
)

func doctorCommand(cmd *cobra.Command, fs afero.Fs, out io.Writer) error {
	var rows []ui.CheckRow
	rows = append(rows, toolChecks()...)

	cfg, err := loadConfig(cmd)
	if err != nil {
		rows = append(rows, ui.CheckRow{
			Status:     "fail",
			Category:   "Config",
			Message:    errors.Brief(err),
			Suggestion: "Fix the config file or flags and run doctor again.",
		})
	} else {
		rows = append(rows, ui.CheckRow{Status: "pass", Category: "Config", Message: "config is valid"})
		rows = append(rows, fleetChecks(fs, cfg)...)
		if doctorReach {
			rows = append(rows, reachChecks(fs, cfg, flags.Scope)...)
		}
	}

	fmt.Fprint(out, ui.RenderCheckTable(rows))

	failed := 0
	for _, r := range rows {
		if r.Status == "fail" {
			failed++
		}
	}
	if failed > 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%d check(s) failed", failed),
			"Fix the issues above before running fleet actions.")
	}
	return nil
}

func toolChecks() []ui.CheckRow {
	var rows []ui.CheckRow
	for _, name := range sync.RequiredTools {
		if _, err := lookupTool(name); err != nil {
			var suggestion string
			var mfErr *errors.Error
			if stderrors.As(err, &mfErr) {
				suggestion = mfErr.Suggestion
			}
			rows = append(rows, ui.CheckRow{
				Status:     "fail",
				Category:   "Tools",
				Message:    fmt.Sprintf("%s not found", name),
				Suggestion: suggestion,
			})
			continue
		}
		msg := name + " found"
		if v, err := toolVersion(name); err == nil {
			msg = fmt.Sprintf("%s: %s", name, v)
		}
		rows = append(rows, ui.CheckRow{Status: "pass", Category: "Tools", Message: msg})
	}
	return rows
}

func fleetChecks(fs afero.Fs, cfg *config.Config) []ui.CheckRow {
	log := logger.NewBufferLogger()

	reg, err := device.Build(fs, cfg.Root, device.Credentials{}, log)
	if err != nil {
		return []ui.CheckRow{{
			Status:     "fail",
			Category:   "Fleet",
			Message:    errors.Brief(err),
			Suggestion: "Pass --dir or set 'root' in " + config.ConfigFileName + ".",
		}}
	}

	rows := []ui.CheckRow{{
		Status:   "pass",
		Category: "Fleet",
		Message:  fmt.Sprintf("%d devices in %s", len(reg), cfg.Root),
	}}
	if len(reg) == 0 {
		rows[0].Status = "warn"
		rows[0].Suggestion = "Device directories are named <id>-<station>-<address>."
	}

	rows = append(rows, warnings(log, "Fleet")...)

	log.Clear()
	n, err := reg.AssignArchives(fs, cfg.Calibration.Dir, log)
	switch {
	case err != nil:
		rows = append(rows, ui.CheckRow{Status: "fail", Category: "Calibration", Message: errors.Brief(err)})
	default:
		rows = append(rows, ui.CheckRow{
			Status:   "pass",
			Category: "Calibration",
			Message:  fmt.Sprintf("%d archives assigned from %s", n, cfg.Calibration.Dir),
		})
	}

	return append(rows, warnings(log, "Calibration")...)
}

func warnings(log *logger.BufferLogger, category string) []ui.CheckRow {
	var rows []ui.CheckRow
	for _, m := range log.Messages {
		if m.Level == "warn" {
			rows = append(rows, ui.CheckRow{Status: "warn", Category: category, Message: m.Message})
		}
	}
	return rows
}

// reachChecks probes every device in scope, or every device when scope is empty.
func reachChecks(fs afero.Fs, cfg *config.Config, scope []string) []ui.CheckRow {
	creds := device.Credentials{User: cfg.Credentials.User, Password: cfg.Credentials.Password}
	reg, err := device.Build(fs, cfg.Root, creds, nil)
	if err != nil {
		return nil
	}

	ids := reg.IDs()
	if len(scope) > 0 {
		if ids, err = ResolveScope(scope, reg, nil); err != nil {
			return []ui.CheckRow{{Status: "fail", Category: "Reachability", Message: errors.Brief(err)}}
		}
	}

	var devices []*device.Descriptor
	for _, id := range ids {
		if dev, ok := reg.Get(id); ok {
			devices = append(devices, dev)
		}
	}

	rows := make([]ui.CheckRow, len(devices))
	g := new(errgroup.Group)
	g.SetLimit(max(cfg.Execution.Parallel, 1))
	for i, dev := range devices {
		g.Go(func() error {
			row := ui.CheckRow{Status: "pass", Category: "Reachability", Message: dev.Info() + " accepts ssh login"}
			if err := probeDevice(dev, cfg.Transfer.Timeout); err != nil {
				row.Status = "fail"
				row.Message = errors.Brief(err)
				var mfErr *errors.Error
				if stderrors.As(err, &mfErr) {
					row.Suggestion = mfErr.Suggestion
				}
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()
	return rows
}
