// Package sync moves files between the operator's machine and fleet devices
// with rsync over sshpass-authenticated ssh.
package sync

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/exec"
	"github.com/rileyhilliard/mecfleet/internal/summary"
	"github.com/rileyhilliard/mecfleet/internal/util"
)

// DefaultRemoteBase is the device-side home of the etc bundle.
const DefaultRemoteBase = "/home/mec"

// Agent builds rsync invocations and records their outcome per device.
type Agent struct {
	Runner   exec.Runner
	Recorder summary.Recorder
	// Fs creates the local bundle directories. Defaults to the OS filesystem.
	Fs afero.Fs
	// Timeout feeds both rsync --timeout and the ssh ConnectTimeout.
	Timeout time.Duration
	// Flags are appended to every rsync call before per-call options.
	Flags []string
	// RemoteBase is the device directory holding dui/ and etc/.
	RemoteBase string
}

// Pull copies remotePath on dev into localPath. Returns the rsync exit code.
func (a *Agent) Pull(dev *device.Descriptor, localPath, remotePath string, opts ...string) int {
	src := dev.RemoteTarget() + ":" + remotePath
	return exec.RunAndRecord(a.Runner, a.Recorder, dev.ID, a.BuildCommand(dev, src, localPath, opts...))
}

// Push copies localPath to remotePath on dev. Returns the rsync exit code.
func (a *Agent) Push(dev *device.Descriptor, localPath, remotePath string, opts ...string) int {
	dst := dev.RemoteTarget() + ":" + remotePath
	return exec.RunAndRecord(a.Runner, a.Recorder, dev.ID, a.BuildCommand(dev, localPath, dst, opts...))
}

// BuildCommand assembles the rsync command line for one transfer.
// src and dst are passed through verbatim so caller globs such as dir/* expand;
// device directories are quoted by the bundle helpers.
//
//	sshpass -p '<pw>' rsync -az --timeout 3 -e 'ssh -o ... -o ConnectTimeout=3' [flags] [opts] <src> <dst>
func (a *Agent) BuildCommand(dev *device.Descriptor, src, dst string, opts ...string) string {
	timeout := a.timeout()
	parts := []string{
		exec.PasswordPrefix(dev.Credentials),
		"rsync", "-az",
		"--timeout", exec.TimeoutSeconds(timeout),
		"-e", "'ssh " + exec.SSHOptions(timeout) + "'",
	}
	parts = append(parts, a.Flags...)
	parts = append(parts, opts...)
	parts = append(parts, src, dst)
	return strings.Join(parts, " ")
}

// EtcItems returns the etc entries pulled for a device. Calibration-eligible
// devices also carry their config directory.
func EtcItems(eligible bool) []string {
	items := []string{"*.cfg", "install"}
	if eligible {
		items = append(items, "config")
	}
	return items
}

// PullEtcBundle pulls <base>/dui (following symlinks) into the device directory,
// then each <base>/etc/<item> into <dir>/etc.
// Returns the first non-zero exit code, or 0 when every transfer succeeded.
func (a *Agent) PullEtcBundle(dev *device.Descriptor, items []string) int {
	base := a.remoteBase()

	duiDir := filepath.Join(dev.Directory, "dui")
	if err := a.fs().MkdirAll(duiDir, 0755); err != nil {
		return a.recordLocalError(dev, duiDir, err)
	}
	result := a.Pull(dev, util.ShellQuote(dev.Directory), path.Join(base, "dui"), "-L")

	etcDir := filepath.Join(dev.Directory, "etc")
	if err := a.fs().MkdirAll(etcDir, 0755); err != nil {
		return a.recordLocalError(dev, etcDir, err)
	}
	for _, item := range items {
		if code := a.Pull(dev, util.ShellQuote(etcDir), path.Join(base, "etc", item)); code != 0 && result == 0 {
			result = code
		}
	}
	return result
}

// PushEtcBundle pushes everything under the device directory to <base>/ on the device.
// This overwrites device configuration.
func (a *Agent) PushEtcBundle(dev *device.Descriptor) int {
	return a.Push(dev, util.ShellQuote(dev.Directory)+"/*", a.remoteBase()+"/")
}

func (a *Agent) recordLocalError(dev *device.Descriptor, dir string, err error) int {
	wrapped := errors.WrapWithCode(err, errors.ErrSync,
		fmt.Sprintf("Couldn't create %s", dir), "")
	if a.Recorder != nil {
		a.Recorder.Record(dev.ID, 1, errors.Brief(wrapped))
	}
	return 1
}

func (a *Agent) fs() afero.Fs {
	if a.Fs == nil {
		return afero.NewOsFs()
	}
	return a.Fs
}

func (a *Agent) timeout() time.Duration {
	if a.Timeout <= 0 {
		return exec.DefaultConnectTimeout
	}
	return a.Timeout
}

func (a *Agent) remoteBase() string {
	if a.RemoteBase == "" {
		return DefaultRemoteBase
	}
	return strings.TrimSuffix(a.RemoteBase, "/")
}
