package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".mecfleet.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/mecfleet"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. MECFLEET_CREDENTIALS_PASSWORD.
	EnvPrefix = "MECFLEET"
)

// Load reads config from the specified path, applying defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Create "+ConfigFileName+" or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .mecfleet.yaml in current directory
// 3. ~/.config/mecfleet/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads the config found from explicit, or defaults plus
// environment overrides when no file exists.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so env overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("root", d.Root)
	v.SetDefault("credentials.user", d.Credentials.User)
	v.SetDefault("credentials.password", d.Credentials.Password)
	v.SetDefault("calibration.dir", d.Calibration.Dir)
	v.SetDefault("calibration.eligible", d.Calibration.Eligible)
	v.SetDefault("calibration.staging", d.Calibration.Staging)
	v.SetDefault("calibration.target", d.Calibration.Target)
	v.SetDefault("transfer.timeout", d.Transfer.Timeout.String())
	v.SetDefault("transfer.flags", d.Transfer.Flags)
	v.SetDefault("transfer.remote_base", d.Transfer.RemoteBase)
	v.SetDefault("transfer.local_path", d.Transfer.LocalPath)
	v.SetDefault("transfer.remote_path", d.Transfer.RemotePath)
	v.SetDefault("execution.parallel", d.Execution.Parallel)
	v.SetDefault("execution.command", d.Execution.Command)
	v.SetDefault("execution.verbose", d.Execution.Verbose)
	v.SetDefault("execution.dry_run", d.Execution.DryRun)
	v.SetDefault("execution.confirm_length", d.Execution.ConfirmLength)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("output.summary", d.Output.Summary)
	v.SetDefault("output.report", d.Output.Report)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		source := "the environment"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+source)
	}

	cfg.Root = ExpandTilde(cfg.Root)
	cfg.Calibration.Dir = ExpandTilde(cfg.Calibration.Dir)
	cfg.Calibration.Staging = ExpandTilde(cfg.Calibration.Staging)
	cfg.Output.Report = ExpandTilde(cfg.Output.Report)

	return cfg, nil
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Use this for LOCAL paths only. Remote paths keep ~ for the remote shell.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
