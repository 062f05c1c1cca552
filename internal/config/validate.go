package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// Bounds on the confirmation code length.
const (
	MinConfirmLength = 4
	MaxConfirmLength = 64
)

// ValidColors are the accepted output.color values.
var ValidColors = []string{"auto", "always", "never"}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but mecfleet only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade mecfleet or lower the config version.")
	}

	if strings.TrimSpace(cfg.Root) == "" {
		return errors.New(errors.ErrConfig,
			"No device root configured",
			"Pass --dir or set 'root' in "+ConfigFileName+".")
	}

	if err := validateTransfer(cfg.Transfer); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'transfer' section in your "+ConfigFileName+".")
	}

	if err := validateExecution(cfg.Execution); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'execution' section in your "+ConfigFileName+".")
	}

	if err := validateCalibration(cfg.Calibration); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'calibration' section in your "+ConfigFileName+".")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your "+ConfigFileName+".")
	}

	return nil
}

func validateTransfer(t TransferConfig) error {
	if t.Timeout <= 0 {
		return fmt.Errorf("transfer.timeout must be positive, got %s", t.Timeout)
	}
	if t.RemoteBase == "" {
		return fmt.Errorf("transfer.remote_base is required")
	}
	return nil
}

func validateExecution(e ExecutionConfig) error {
	if e.Parallel < 0 {
		return fmt.Errorf("execution.parallel can't be negative, got %d", e.Parallel)
	}
	if e.ConfirmLength < MinConfirmLength || e.ConfirmLength > MaxConfirmLength {
		return fmt.Errorf("execution.confirm_length must be between %d and %d, got %d",
			MinConfirmLength, MaxConfirmLength, e.ConfirmLength)
	}
	return nil
}

func validateCalibration(c CalibrationConfig) error {
	if c.Target == "" {
		return fmt.Errorf("calibration.target is required")
	}
	if strings.HasPrefix(c.Target, "/") {
		return fmt.Errorf("calibration.target must be relative to the device directory, got %s", c.Target)
	}
	for _, token := range c.Eligible {
		for _, entry := range strings.Split(token, ",") {
			if strings.TrimSpace(entry) == "" {
				continue
			}
			if _, _, err := device.ParseScopeEntry(entry); err != nil {
				return fmt.Errorf("calibration.eligible entry %q is invalid: %s", entry, errors.Brief(err))
			}
		}
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	for _, c := range ValidColors {
		if o.Color == c {
			return nil
		}
	}
	return fmt.Errorf("output.color must be one of %s, got %q", strings.Join(ValidColors, ", "), o.Color)
}
