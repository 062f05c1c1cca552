package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/logger"
)

// ScopeAll selects every registered device.
const ScopeAll = "all"

// GlobalFlags holds the flags shared by every action command.
type GlobalFlags struct {
	Dir       string
	Califiles string
	User      string
	Password  string
	Scope     []string
	DryRun    bool
	Verbose   bool
	Parallel  int
	Summary   bool
	Report    string
	NoColor   bool
}

// AddGlobalFlags registers the shared flags on fs.
func AddGlobalFlags(fs *pflag.FlagSet, f *GlobalFlags) {
	fs.StringVarP(&f.Dir, "dir", "d", "", "fleet root holding <id>-<station>-<address> directories")
	fs.StringVar(&f.Califiles, "califiles", "", "directory of calibration archives")
	fs.StringVarP(&f.User, "user", "u", "", "device login user")
	fs.StringVarP(&f.Password, "password", "p", "", "device login password (prefer MECFLEET_CREDENTIALS_PASSWORD)")
	fs.StringSliceVarP(&f.Scope, "scope", "s", nil, "device ids and ranges, e.g. -s 1,4-9 or -s all")
	fs.BoolVar(&f.DryRun, "dry-run", false, "print commands instead of running them")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "print every command with its SUCC/FAIL verdict")
	fs.IntVarP(&f.Parallel, "parallel", "j", 1, "devices to run concurrently (1 = sequential, ascending id)")
	fs.BoolVar(&f.Summary, "summary", true, "print the [SUMMARY] block after the run")
	fs.StringVar(&f.Report, "report", "", "write the run summary as YAML to this path")
	fs.BoolVar(&f.NoColor, "no-color", false, "disable colored output")
}

// ApplyFlags overlays explicitly set flags onto cfg. Flags left at their
// defaults never override config or environment values.
func ApplyFlags(fs *pflag.FlagSet, f *GlobalFlags, cfg *config.Config) {
	if fs.Changed("dir") {
		cfg.Root = f.Dir
	}
	if fs.Changed("califiles") {
		cfg.Calibration.Dir = f.Califiles
	}
	if fs.Changed("user") {
		cfg.Credentials.User = f.User
	}
	if fs.Changed("password") {
		cfg.Credentials.Password = f.Password
	}
	if fs.Changed("dry-run") {
		cfg.Execution.DryRun = f.DryRun
	}
	if fs.Changed("verbose") {
		cfg.Execution.Verbose = f.Verbose
	}
	if fs.Changed("parallel") {
		cfg.Execution.Parallel = f.Parallel
	}
	if fs.Changed("summary") {
		cfg.Output.Summary = f.Summary
	}
	if fs.Changed("report") {
		cfg.Output.Report = f.Report
	}
	if fs.Changed("no-color") && f.NoColor {
		cfg.Output.Color = "never"
	}
}

// ResolveScope turns --scope tokens into device ids. "all" selects every
// registered device; anything else goes through device.ParseScope.
func ResolveScope(tokens []string, reg device.Registry, log logger.Logger) ([]int, error) {
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrScope,
			"No devices selected",
			"Pass --scope with ids or ranges (e.g. -s 1,4-9), or -s all for every device.")
	}
	for _, token := range tokens {
		if strings.EqualFold(strings.TrimSpace(token), ScopeAll) {
			return reg.IDs(), nil
		}
	}
	return device.ParseScope(tokens, log), nil
}
