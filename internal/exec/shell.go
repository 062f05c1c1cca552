package exec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/summary"
	"github.com/rileyhilliard/mecfleet/internal/util"
)

// DefaultConnectTimeout bounds how long ssh and rsync wait for a device to answer.
const DefaultConnectTimeout = 3 * time.Second

// RunAndRecord executes command and records its outcome against deviceID.
// A command that could not be started is recorded as exit -1 with the error text.
// Returns the exit code.
func RunAndRecord(r Runner, rec summary.Recorder, deviceID int, command string) int {
	code, output, err := r.Run(command)
	if err != nil {
		code = -1
		output = errors.Brief(err)
	}
	if rec != nil {
		rec.Record(deviceID, code, output)
	}
	return code
}

// TimeoutSeconds renders d as whole seconds for ssh/rsync flags, never below 1.
func TimeoutSeconds(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// SSHOptions returns the ssh options shared by remote commands and rsync transport.
func SSHOptions(timeout time.Duration) string {
	return "-o StrictHostKeyChecking=no -o ConnectTimeout=" + TimeoutSeconds(timeout)
}

// PasswordPrefix returns the sshpass invocation that feeds the device password.
func PasswordPrefix(creds device.Credentials) string {
	return "sshpass -p " + util.ShellQuote(creds.Password)
}

// BuildRemoteCommand wraps command in an ssh invocation against dev.
//
//	sshpass -p '<pw>' ssh -o StrictHostKeyChecking=no -o ConnectTimeout=3 user@addr '<command>'
func BuildRemoteCommand(dev *device.Descriptor, command string, timeout time.Duration) string {
	return fmt.Sprintf("%s ssh %s %s %s",
		PasswordPrefix(dev.Credentials), SSHOptions(timeout), dev.RemoteTarget(), util.ShellQuote(command))
}

// RemoteShell runs placeholder-expanded commands on devices over ssh.
type RemoteShell struct {
	Runner         Runner
	Recorder       summary.Recorder
	ConnectTimeout time.Duration
}

// Preview returns the expanded command without running it.
func (s *RemoteShell) Preview(dev *device.Descriptor, template string) string {
	return dev.Expand(template)
}

// Run expands template for dev, runs it remotely and records the outcome.
func (s *RemoteShell) Run(dev *device.Descriptor, template string) int {
	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return RunAndRecord(s.Runner, s.Recorder, dev.ID, BuildRemoteCommand(dev, s.Preview(dev, template), timeout))
}

// LocalShell runs placeholder-expanded commands on the operator's machine.
type LocalShell struct {
	Runner   Runner
	Recorder summary.Recorder
}

// Preview returns the expanded command without running it.
func (s *LocalShell) Preview(dev *device.Descriptor, template string) string {
	return dev.Expand(template)
}

// Run expands template for dev, runs it locally and records the outcome.
func (s *LocalShell) Run(dev *device.Descriptor, template string) int {
	return RunAndRecord(s.Runner, s.Recorder, dev.ID, s.Preview(dev, template))
}
