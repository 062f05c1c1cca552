// Package exec runs the shell commands a fleet operation is made of.
//
// Every transfer, remote command and local command ends up as one string handed
// to a Runner. ShellRunner is the production implementation; tests substitute
// the fakes in internal/exec/testing.
package exec

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/ui"
)

// DryRunOutput is the output a dry-run Runner reports for every command.
const DryRunOutput = "Just a test"

// Runner executes one shell command and reports its exit status and merged output.
type Runner interface {
	Run(command string) (exitCode int, output string, err error)
}

// ShellRunner runs commands through the user's shell.
type ShellRunner struct {
	// DryRun prints each command instead of executing it.
	DryRun bool
	// Verbose prints each command with a SUCC/FAIL verdict.
	Verbose bool
	// Out receives the command echo and indented output. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// NewShellRunner creates a runner writing to out.
func NewShellRunner(out io.Writer, dryRun, verbose bool) *ShellRunner {
	return &ShellRunner{Out: out, DryRun: dryRun, Verbose: verbose}
}

// Run executes command with $SHELL -c (falling back to /bin/sh) and blocks until it exits.
// A non-zero exit is not an error; err is set only when the process could not be started.
func (r *ShellRunner) Run(command string) (int, string, error) {
	if r.DryRun {
		r.write(formatExec(command) + "\n")
		return 0, DryRunOutput, nil
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	var buf bytes.Buffer
	cmd := exec.Command(shell, "-c", command)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	exitCode := 0
	if runErr := cmd.Run(); runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			r.report(command, -1, "")
			return -1, "", errors.WrapWithCode(runErr, errors.ErrExec,
				"Couldn't start the command",
				"Make sure $SHELL points at a working shell.")
		}
		exitCode = exitErr.ExitCode()
	}

	output := buf.String()
	r.report(command, exitCode, output)
	return exitCode, output, nil
}

// report writes the verdict and output as one block so concurrent workers don't interleave.
func (r *ShellRunner) report(command string, exitCode int, output string) {
	var b strings.Builder
	if r.Verbose {
		verdict := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSuccess).Render("SUCC")
		if exitCode != 0 {
			verdict = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorError).Render("FAIL")
		}
		b.WriteString(formatExec(command) + "RESULT:" + verdict + "\n")
	}
	if output != "" {
		b.WriteString(Indent(output) + "\n")
	}
	if b.Len() > 0 {
		r.write(b.String())
	}
}

func (r *ShellRunner) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = io.WriteString(out, s)
}

func formatExec(command string) string {
	return "  EXEC:\"" + command + "\";"
}

// Indent prefixes every line of output with four spaces. A trailing newline is dropped.
func Indent(output string) string {
	output = strings.TrimSuffix(output, "\n")
	return "    " + strings.ReplaceAll(output, "\n", "\n    ")
}
