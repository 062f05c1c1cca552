// Package fleet maps action kinds to per-device operations and runs them over
// a scope of device ids.
package fleet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/calib"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/sync"
)

// Kind names one fleet action.
type Kind string

// Action kinds.
const (
	KindPullFiles         Kind = "pull-files"
	KindPushFiles         Kind = "push-files"
	KindPullEtcBundle     Kind = "pull-etc-bundle"
	KindPushEtcBundle     Kind = "push-etc-bundle"
	KindRemoteExec        Kind = "remote-exec"
	KindLocalExec         Kind = "local-exec"
	KindDeployCalibration Kind = "deploy-calibration"
	KindShowCommand       Kind = "show-substituted-command"
)

// Kinds lists every action kind in display order.
var Kinds = []Kind{
	KindPullFiles,
	KindPushFiles,
	KindPullEtcBundle,
	KindPushEtcBundle,
	KindRemoteExec,
	KindLocalExec,
	KindDeployCalibration,
	KindShowCommand,
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Destructive reports whether the kind overwrites state on the devices.
func (k Kind) Destructive() bool {
	switch k {
	case KindPushFiles, KindPushEtcBundle:
		return true
	default:
		return false
	}
}

// ParseKind resolves an action name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown action %q", name),
		"Valid actions: "+strings.Join(names, ", "))
}

// Operation performs an action against one device and records its outcome.
type Operation func(dev *device.Descriptor)

// Action is one resolved entry of the dispatch table.
type Action struct {
	Kind        Kind
	Destructive bool
	Run         Operation
}

// Transferer moves files between the operator and a device.
type Transferer interface {
	Pull(dev *device.Descriptor, localPath, remotePath string, opts ...string) int
	Push(dev *device.Descriptor, localPath, remotePath string, opts ...string) int
	PullEtcBundle(dev *device.Descriptor, items []string) int
	PushEtcBundle(dev *device.Descriptor) int
}

// Shell runs a placeholder template for a device.
type Shell interface {
	Run(dev *device.Descriptor, template string) int
	Preview(dev *device.Descriptor, template string) string
}

// Deployer installs calibration archives on a device.
type Deployer interface {
	Deploy(dev *device.Descriptor) int
}

// Params are the operator-supplied arguments shared by every device in a run.
// Paths and the command accept ${ID}, ${IP} and ${ROD}.
type Params struct {
	LocalPath  string
	RemotePath string
	Command    string
}

// Toolkit holds the components the dispatch table is built from.
type Toolkit struct {
	Transfer Transferer
	Remote   Shell
	Local    Shell
	Deployer Deployer
	Eligible calib.EligibilitySet
	Params   Params
	// Out receives show-substituted-command output. Defaults to os.Stdout.
	Out io.Writer
}

// Table builds the dispatch table.
func (t *Toolkit) Table() map[Kind]Action {
	p := t.Params
	ops := map[Kind]Operation{
		KindPullFiles: func(dev *device.Descriptor) {
			t.Transfer.Pull(dev, dev.Expand(p.LocalPath), dev.Expand(p.RemotePath))
		},
		KindPushFiles: func(dev *device.Descriptor) {
			t.Transfer.Push(dev, dev.Expand(p.LocalPath), dev.Expand(p.RemotePath))
		},
		KindPullEtcBundle: func(dev *device.Descriptor) {
			t.Transfer.PullEtcBundle(dev, sync.EtcItems(t.Eligible.Contains(dev.ID)))
		},
		KindPushEtcBundle: func(dev *device.Descriptor) {
			t.Transfer.PushEtcBundle(dev)
		},
		KindRemoteExec: func(dev *device.Descriptor) {
			t.Remote.Run(dev, p.Command)
		},
		KindLocalExec: func(dev *device.Descriptor) {
			t.Local.Run(dev, p.Command)
		},
		KindDeployCalibration: func(dev *device.Descriptor) {
			t.Deployer.Deploy(dev)
		},
		KindShowCommand: func(dev *device.Descriptor) {
			fmt.Fprintln(t.out(), t.Local.Preview(dev, p.Command))
		},
	}

	table := make(map[Kind]Action, len(ops))
	for kind, op := range ops {
		table[kind] = Action{Kind: kind, Destructive: kind.Destructive(), Run: op}
	}
	return table
}

// Resolve looks up kind in the dispatch table.
func (t *Toolkit) Resolve(kind Kind) (Action, error) {
	action, ok := t.Table()[kind]
	if !ok {
		_, err := ParseKind(string(kind))
		return Action{}, err
	}
	return action, nil
}

func (t *Toolkit) out() io.Writer {
	if t.Out == nil {
		return os.Stdout
	}
	return t.Out
}
