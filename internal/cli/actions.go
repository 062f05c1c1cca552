package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mecfleet/internal/calib"
	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/confirm"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/exec"
	"github.com/rileyhilliard/mecfleet/internal/fleet"
	"github.com/rileyhilliard/mecfleet/internal/logger"
	"github.com/rileyhilliard/mecfleet/internal/summary"
	"github.com/rileyhilliard/mecfleet/internal/sync"
	"github.com/rileyhilliard/mecfleet/internal/ui"
	"github.com/rileyhilliard/mecfleet/internal/util"
)

// newGate builds the confirmation gate for destructive actions. Tests replace it.
var newGate = func() fleet.Gate {
	return confirm.NewGate()
}

// Per-command path flags for pull-files and push-files.
var (
	pullLocal  string
	pullRemote string
	pushLocal  string
	pushRemote string
)

var pullFilesCmd = &cobra.Command{
	Use:   "pull-files",
	Short: "Copy a path from every device to the local machine",
	Long: `Copy --remote from each device in scope into --local with rsync.

Both paths accept ${ID}, ${IP} and ${ROD}, so each device can land in its own directory.

Examples:
  mecfleet pull-files -s 1-10 --remote /home/mec/log/app.log --local './logs/${ID}/'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindPullFiles, func(p *fleet.Params) {
			overrideIfSet(cmd, "local", &p.LocalPath, pullLocal)
			overrideIfSet(cmd, "remote", &p.RemotePath, pullRemote)
		})
	},
}

var pushFilesCmd = &cobra.Command{
	Use:   "push-files",
	Short: "Copy a local path to every device (asks for confirmation)",
	Long: `Copy --local to --remote on each device in scope with rsync.

This overwrites files on the devices, so a confirmation code must be typed first.

Examples:
  mecfleet push-files -s 3,5 --local ./patch/ --remote /home/mec/bin/`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindPushFiles, func(p *fleet.Params) {
			overrideIfSet(cmd, "local", &p.LocalPath, pushLocal)
			overrideIfSet(cmd, "remote", &p.RemotePath, pushRemote)
		})
	},
}

var pullEtcBundleCmd = &cobra.Command{
	Use:   "pull-etc-bundle",
	Short: "Fetch dui/ and etc/ from every device into its local directory",
	Long: `Fetch <remote_base>/dui (following symlinks) and the etc items
*.cfg and install into each device's local directory. Calibration-eligible
devices also fetch etc/config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindPullEtcBundle, nil)
	},
}

var pushEtcBundleCmd = &cobra.Command{
	Use:   "push-etc-bundle",
	Short: "Push each device's local directory back to the device (asks for confirmation)",
	Long: `Push everything under each device's local directory to <remote_base>/.

This overwrites device configuration, so a confirmation code must be typed first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindPushEtcBundle, nil)
	},
}

var remoteExecCmd = &cobra.Command{
	Use:   "remote-exec [command]",
	Short: "Run a command on every device over ssh",
	Long: `Run a command on each device in scope. ${ID}, ${IP} and ${ROD} are
replaced per device. Without a command, execution.command from the config runs.

Examples:
  mecfleet remote-exec -s 1-20 "df -h /home/mec"
  mecfleet remote-exec -s all "cat /home/mec/etc/install/version"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindRemoteExec, commandFromArgs(args))
	},
}

var localExecCmd = &cobra.Command{
	Use:   "local-exec [command]",
	Short: "Run a command locally once per device",
	Long: `Run a command on this machine once for each device in scope, with
${ID}, ${IP} and ${ROD} replaced per device.

Examples:
  mecfleet local-exec -s 1-20 'ping -c1 -W1 ${IP}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindLocalExec, commandFromArgs(args))
	},
}

var deployCalibrationCmd = &cobra.Command{
	Use:   "deploy-calibration",
	Short: "Install calibration archives into each eligible device's directory",
	Long: `Extract every archive in --califiles assigned to a device in scope and
copy its <region>/<sub>/ tree into <device dir>/etc/config/calibration/.

Devices outside the eligibility set are reported as failures.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindDeployCalibration, nil)
	},
}

var showCommandCmd = &cobra.Command{
	Use:   "show-substituted-command [command]",
	Short: "Print the command with placeholders replaced for every device",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActionCommand(cmd, fleet.KindShowCommand, commandFromArgs(args))
	},
}

func init() {
	pullFilesCmd.Flags().StringVarP(&pullLocal, "local", "l", "", "local destination (default transfer.local_path)")
	pullFilesCmd.Flags().StringVarP(&pullRemote, "remote", "r", "", "remote source (default transfer.remote_path)")
	pushFilesCmd.Flags().StringVarP(&pushLocal, "local", "l", "", "local source (default transfer.local_path)")
	pushFilesCmd.Flags().StringVarP(&pushRemote, "remote", "r", "", "remote destination (default transfer.remote_path)")

	rootCmd.AddCommand(pullFilesCmd)
	rootCmd.AddCommand(pushFilesCmd)
	rootCmd.AddCommand(pullEtcBundleCmd)
	rootCmd.AddCommand(pushEtcBundleCmd)
	rootCmd.AddCommand(remoteExecCmd)
	rootCmd.AddCommand(localExecCmd)
	rootCmd.AddCommand(deployCalibrationCmd)
	rootCmd.AddCommand(showCommandCmd)
}

func overrideIfSet(cmd *cobra.Command, name string, dst *string, value string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

func commandFromArgs(args []string) func(*fleet.Params) {
	return func(p *fleet.Params) {
		if len(args) > 0 {
			p.Command = strings.Join(args, " ")
		}
	}
}

// loadConfig finds and loads config, overlays explicitly set flags and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, err
	}
	ApplyFlags(cmd.Flags(), &flags, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if path != "" {
		logger.NewEnvLogger("[config]").Debug("loaded %s", path)
	}
	return cfg, nil
}

func runActionCommand(cmd *cobra.Command, kind fleet.Kind, customize func(*fleet.Params)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Output.Color == "never" {
		ui.DisableColors()
	}

	params := fleet.Params{
		LocalPath:  cfg.Transfer.LocalPath,
		RemotePath: cfg.Transfer.RemotePath,
		Command:    cfg.Execution.Command,
	}
	if customize != nil {
		customize(&params)
	}

	return runFleet(cmd.Context(), fleetRun{
		Config: cfg,
		Kind:   kind,
		Params: params,
		Scope:  flags.Scope,
		Fs:     afero.NewOsFs(),
		Out:    os.Stdout,
		Gate:   newGate(),
	})
}

// fleetRun is everything one action invocation needs.
type fleetRun struct {
	Config *config.Config
	Kind   fleet.Kind
	Params fleet.Params
	Scope  []string
	Fs     afero.Fs
	Out    io.Writer
	Gate   fleet.Gate
}

// runFleet builds the registry, resolves the scope and action, dispatches it
// and reports the summary. Device failures never make it return an error.
func runFleet(ctx context.Context, r fleetRun) error {
	cfg := r.Config
	regLog := logger.NewEnvLogger("[registry]")
	calLog := logger.NewEnvLogger("[calib]")

	creds := device.Credentials{User: cfg.Credentials.User, Password: cfg.Credentials.Password}
	reg, err := device.Build(r.Fs, cfg.Root, creds, regLog)
	if err != nil {
		return err
	}
	if r.Kind == fleet.KindDeployCalibration {
		if _, err := reg.AssignArchives(r.Fs, cfg.Calibration.Dir, calLog); err != nil {
			return err
		}
	}

	ids, err := ResolveScope(r.Scope, reg, logger.NewEnvLogger("[scope]"))
	if err != nil {
		return err
	}

	agg := summary.NewAggregator()
	runner := exec.NewShellRunner(r.Out, cfg.Execution.DryRun, cfg.Execution.Verbose)
	eligible := calib.ParseEligibility(cfg.Calibration.Eligible, calLog)

	toolkit := &fleet.Toolkit{
		Transfer: &sync.Agent{
			Runner:     runner,
			Recorder:   agg,
			Fs:         r.Fs,
			Timeout:    cfg.Transfer.Timeout,
			Flags:      cfg.Transfer.Flags,
			RemoteBase: cfg.Transfer.RemoteBase,
		},
		Remote: &exec.RemoteShell{Runner: runner, Recorder: agg, ConnectTimeout: cfg.Transfer.Timeout},
		Local:  &exec.LocalShell{Runner: runner, Recorder: agg},
		Deployer: &calib.Deployer{
			Fs:           r.Fs,
			Eligible:     eligible,
			StagingRoot:  cfg.Calibration.Staging,
			TargetSubdir: cfg.Calibration.Target,
			DryRun:       cfg.Execution.DryRun,
			Recorder:     agg,
			Log:          calLog,
		},
		Eligible: eligible,
		Params:   r.Params,
		Out:      r.Out,
	}

	action, err := toolkit.Resolve(r.Kind)
	if err != nil {
		return err
	}

	dispatcher := &fleet.Dispatcher{
		Registry:      reg,
		Gate:          r.Gate,
		ConfirmLength: cfg.Execution.ConfirmLength,
		Parallel:      cfg.Execution.Parallel,
		Log:           regLog,
		Out:           r.Out,
	}

	stats, runErr := dispatcher.Run(ctx, action, ids)
	if runErr != nil && stats.Dispatched == 0 && errors.IsCode(runErr, errors.ErrAborted) && ctx.Err() == nil {
		// Confirmation failed: nothing ran, nothing to summarize.
		return runErr
	}

	if r.Kind == fleet.KindShowCommand {
		return runErr
	}

	s := agg.Summary()
	if cfg.Output.Summary {
		summary.Render(r.Out, s)
	}
	if cfg.Output.Report != "" {
		if err := summary.WriteReport(cfg.Output.Report, s); err != nil {
			return err
		}
	}
	if stats.Skipped > 0 {
		fmt.Fprintf(r.Out, "%s %d %s not found in %s\n", ui.SymbolSkipped, stats.Skipped,
			util.Pluralize(stats.Skipped, "device", "devices"), cfg.Root)
	}
	return runErr
}
