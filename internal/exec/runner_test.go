package exec

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

func TestShellRunner_SimpleCommand(t *testing.T) {
	var out bytes.Buffer
	r := NewShellRunner(&out, false, false)

	code, output, err := r.Run("echo hello")

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", output)
	assert.Equal(t, "    hello\n", out.String())
}

func TestShellRunner_NonZeroExitCode(t *testing.T) {
	r := NewShellRunner(&bytes.Buffer{}, false, false)

	code, _, err := r.Run("exit 42")

	require.NoError(t, err, "a non-zero exit is not a runner error")
	assert.Equal(t, 42, code)
}

func TestShellRunner_MergesStderr(t *testing.T) {
	r := NewShellRunner(&bytes.Buffer{}, false, false)

	code, output, err := r.Run("echo out; echo err >&2; exit 3")

	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, output, "out")
	assert.Contains(t, output, "err")
}

func TestShellRunner_NoOutputNoEcho(t *testing.T) {
	var out bytes.Buffer
	r := NewShellRunner(&out, false, false)

	_, output, err := r.Run("true")

	require.NoError(t, err)
	assert.Empty(t, output)
	assert.Empty(t, out.String())
}

func TestShellRunner_DryRun(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	r := NewShellRunner(&out, true, false)

	code, output, err := r.Run("touch " + dir + "/marker")

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, DryRunOutput, output)
	assert.Equal(t, "  EXEC:\"touch "+dir+"/marker\";\n", out.String())
	assert.NoFileExists(t, dir+"/marker", "dry-run must not start a process")
}

func TestShellRunner_Verbose(t *testing.T) {
	var out bytes.Buffer
	r := NewShellRunner(&out, false, true)

	_, _, err := r.Run("exit 0")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `EXEC:"exit 0";`)
	assert.Contains(t, out.String(), "SUCC")

	out.Reset()
	_, _, err = r.Run("exit 1")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "FAIL")
}

func TestShellRunner_StartFailure(t *testing.T) {
	t.Setenv("SHELL", "/nonexistent/shell")
	r := NewShellRunner(&bytes.Buffer{}, false, false)

	code, output, err := r.Run("echo hello")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Equal(t, -1, code)
	assert.Empty(t, output)
}

func TestShellRunner_ConcurrentEchoBlocksStayWhole(t *testing.T) {
	var out bytes.Buffer
	r := NewShellRunner(&out, false, false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = r.Run("printf 'a\\nb\\n'")
		}()
	}
	wg.Wait()

	assert.Equal(t, strings.Repeat("    a\n    b\n", 8), out.String())
}

func TestIndent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single line", in: "ok\n", want: "    ok"},
		{name: "multi line", in: "a\nb\n", want: "    a\n    b"},
		{name: "no trailing newline", in: "a\nb", want: "    a\n    b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indent(tt.in))
		})
	}
}
