package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/fleet"
)

type fakeGate struct {
	err     error
	lengths []int
}

func (g *fakeGate) Challenge(length int) error {
	g.lengths = append(g.lengths, length)
	return g.err
}

func runAction(t *testing.T, fs afero.Fs, r fleetRun) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	r.Fs = fs
	r.Out = &buf
	if r.Config == nil {
		r.Config = testConfig()
	}
	err := runFleet(context.Background(), r)
	return buf.String(), err
}

func TestRunFleet_LocalExecDryRun(t *testing.T) {
	fs := newFleetFs(t, 1, 2)

	out, err := runAction(t, fs, fleetRun{
		Kind:   fleet.KindLocalExec,
		Params: fleet.Params{Command: "ping -c1 ${IP}"},
		Scope:  []string{"1-3"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, `Operation "local-exec" on`)
	assert.Contains(t, out, `EXEC:"ping -c1 10.0.0.1";`)
	assert.Contains(t, out, `EXEC:"ping -c1 10.0.0.2";`)
	assert.Contains(t, out, "[SUMMARY]")
	assert.Contains(t, out, "FAILURE COUNT: 0")
	assert.Contains(t, out, "SUCCESS COUNT: 2")
	assert.Contains(t, out, "Devices: 1 2")
	assert.Contains(t, out, "1 device not found in /fleet")
}

func TestRunFleet_RemoteExecDryRunWrapsCommand(t *testing.T) {
	fs := newFleetFs(t, 4)
	cfg := testConfig()
	cfg.Credentials.Password = "pw"

	out, err := runAction(t, fs, fleetRun{
		Config: cfg,
		Kind:   fleet.KindRemoteExec,
		Params: fleet.Params{Command: "echo ${ID}"},
		Scope:  []string{"4"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "sshpass -p 'pw' ssh -o StrictHostKeyChecking=no -o ConnectTimeout=3 mec@10.0.0.4 'echo 004'")
	assert.Contains(t, out, "SUCCESS COUNT: 1")
}

func TestRunFleet_DeployCalibrationDryRun(t *testing.T) {
	fs := newFleetFs(t, 1, 2)
	require.NoError(t, afero.WriteFile(fs, "/cal/001-K1-R1_a-v2.zip", []byte("zip"), 0644))
	cfg := testConfig()
	cfg.Calibration.Eligible = []string{"1"}

	out, err := runAction(t, fs, fleetRun{
		Config: cfg,
		Kind:   fleet.KindDeployCalibration,
		Scope:  []string{"all"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "FAILURE COUNT: 1")
	assert.Contains(t, out, "ERROR: not eligible for calibration")
	assert.Contains(t, out, "SUCCESS COUNT: 1")

	exists, err := afero.DirExists(fs, filepath.Join(fleetDir(1), "etc/config/calibration"))
	require.NoError(t, err)
	assert.False(t, exists, "dry run installs nothing")
}

func TestRunFleet_DestructiveAbortRunsNothing(t *testing.T) {
	fs := newFleetFs(t, 1)
	gate := &fakeGate{err: errors.New(errors.ErrAborted, "Check failure!", "")}

	out, err := runAction(t, fs, fleetRun{
		Kind:  fleet.KindPushFiles,
		Scope: []string{"1"},
		Gate:  gate,
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAborted))
	assert.Equal(t, []int{8}, gate.lengths)
	assert.NotContains(t, out, "Operation")
	assert.NotContains(t, out, "[SUMMARY]")
}

func TestRunFleet_DestructiveConfirmed(t *testing.T) {
	fs := newFleetFs(t, 1, 2)
	gate := &fakeGate{}
	cfg := testConfig()
	cfg.Execution.ConfirmLength = 12

	out, err := runAction(t, fs, fleetRun{
		Config: cfg,
		Kind:   fleet.KindPushEtcBundle,
		Scope:  []string{"1,2"},
		Gate:   gate,
	})

	require.NoError(t, err)
	assert.Equal(t, []int{12}, gate.lengths, "one challenge per run")
	assert.Contains(t, out, "rsync -az")
	assert.Contains(t, out, "mec@10.0.0.2:/home/mec/")
	assert.Contains(t, out, "SUCCESS COUNT: 2")
}

func TestRunFleet_ShowCommandPrintsOnly(t *testing.T) {
	fs := newFleetFs(t, 1, 2)

	out, err := runAction(t, fs, fleetRun{
		Kind:   fleet.KindShowCommand,
		Params: fleet.Params{Command: "scp x ${IP}:/tmp/${ID}"},
		Scope:  []string{"1-2"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "scp x 10.0.0.1:/tmp/001")
	assert.Contains(t, out, "scp x 10.0.0.2:/tmp/002")
	assert.NotContains(t, out, "EXEC:")
	assert.NotContains(t, out, "[SUMMARY]")
}

func TestRunFleet_ReportWithoutSummary(t *testing.T) {
	fs := newFleetFs(t, 1, 2)
	cfg := testConfig()
	cfg.Output.Summary = false
	cfg.Output.Report = filepath.Join(t.TempDir(), "report.yaml")

	out, err := runAction(t, fs, fleetRun{
		Config: cfg,
		Kind:   fleet.KindLocalExec,
		Params: fleet.Params{Command: "true"},
		Scope:  []string{"all"},
	})

	require.NoError(t, err)
	assert.NotContains(t, out, "[SUMMARY]")

	data, err := os.ReadFile(cfg.Output.Report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "success_count: 2")
}

func TestRunFleet_EmptyScope(t *testing.T) {
	fs := newFleetFs(t, 1)

	_, err := runAction(t, fs, fleetRun{Kind: fleet.KindLocalExec})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrScope))
}

func TestRunFleet_MissingRoot(t *testing.T) {
	cfg := testConfig()
	cfg.Root = "/nowhere"

	_, err := runAction(t, afero.NewMemMapFs(), fleetRun{Config: cfg, Kind: fleet.KindLocalExec, Scope: []string{"1"}})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestRunFleet_CancelledBeforeStart(t *testing.T) {
	fs := newFleetFs(t, 1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runFleet(ctx, fleetRun{
		Config: testConfig(),
		Kind:   fleet.KindLocalExec,
		Params: fleet.Params{Command: "true"},
		Scope:  []string{"all"},
		Fs:     fs,
		Out:    &buf,
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAborted))
	assert.Contains(t, buf.String(), "SUCCESS COUNT: 0", "interrupted runs still summarize")
}

func TestCommandFromArgs(t *testing.T) {
	p := fleet.Params{Command: "default"}
	commandFromArgs(nil)(&p)
	assert.Equal(t, "default", p.Command)

	commandFromArgs([]string{"df", "-h", "/home/mec"})(&p)
	assert.Equal(t, "df -h /home/mec", p.Command)
}

func TestActionCommandsRegistered(t *testing.T) {
	for _, kind := range fleet.Kinds {
		cmd, _, err := rootCmd.Find([]string{kind.String()})
		require.NoError(t, err, kind)
		assert.Equal(t, kind.String(), cmd.Name())
	}
}
