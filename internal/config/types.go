package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .mecfleet.yaml configuration file.
type Config struct {
	Version     int               `yaml:"version" mapstructure:"version"`
	Root        string            `yaml:"root" mapstructure:"root"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Calibration CalibrationConfig `yaml:"calibration" mapstructure:"calibration"`
	Transfer    TransferConfig    `yaml:"transfer" mapstructure:"transfer"`
	Execution   ExecutionConfig   `yaml:"execution" mapstructure:"execution"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// CredentialsConfig is the login shared by every device.
type CredentialsConfig struct {
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// CalibrationConfig controls calibration archive deployment.
type CalibrationConfig struct {
	// Dir holds archives named <id>-...-<region>_<sub>-....zip.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Eligible lists the device ids allowed to receive calibration, as scope
	// tokens ("1", "5-9"). Empty selects the built-in station list.
	Eligible []string `yaml:"eligible" mapstructure:"eligible"`

	// Staging is the scratch root archives are extracted under.
	Staging string `yaml:"staging" mapstructure:"staging"`

	// Target is the install directory relative to each device directory.
	Target string `yaml:"target" mapstructure:"target"`
}

// TransferConfig controls rsync and ssh invocations.
type TransferConfig struct {
	// Timeout is passed to rsync --timeout and ssh ConnectTimeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Flags are extra rsync flags added to every transfer.
	Flags []string `yaml:"flags" mapstructure:"flags"`

	// RemoteBase is the device directory holding dui/ and etc/.
	RemoteBase string `yaml:"remote_base" mapstructure:"remote_base"`

	// LocalPath and RemotePath are the pull-files/push-files endpoints.
	// Both accept ${ID}, ${IP} and ${ROD}.
	LocalPath  string `yaml:"local_path" mapstructure:"local_path"`
	RemotePath string `yaml:"remote_path" mapstructure:"remote_path"`
}

// ExecutionConfig controls how actions run.
type ExecutionConfig struct {
	// Parallel bounds concurrent devices. 0 or 1 runs sequentially.
	Parallel int `yaml:"parallel" mapstructure:"parallel"`

	// Command is the remote-exec/local-exec template.
	Command string `yaml:"command" mapstructure:"command"`

	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	DryRun  bool `yaml:"dry_run" mapstructure:"dry_run"`

	// ConfirmLength is the length of the code typed before destructive actions.
	ConfirmLength int `yaml:"confirm_length" mapstructure:"confirm_length"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	// Color: auto, always, never.
	Color string `yaml:"color" mapstructure:"color"`

	// Summary prints the [SUMMARY] block after the run.
	Summary bool `yaml:"summary" mapstructure:"summary"`

	// Report, when set, is where the run summary is written as YAML.
	Report string `yaml:"report" mapstructure:"report"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Root:    "./fleet",
		Credentials: CredentialsConfig{
			User: "mec",
		},
		Calibration: CalibrationConfig{
			Dir:     "./califiles",
			Staging: "./tmp",
			Target:  "etc/config/calibration",
		},
		Transfer: TransferConfig{
			Timeout:    3 * time.Second,
			RemoteBase: "/home/mec",
			LocalPath:  "./tmp/",
			RemotePath: "/home/mec/tmp/",
		},
		Execution: ExecutionConfig{
			Parallel:      1,
			Command:       "ls -alh /home/mec",
			Verbose:       true,
			ConfirmLength: 8,
		},
		Output: OutputConfig{
			Color:   "auto",
			Summary: true,
		},
	}
}
