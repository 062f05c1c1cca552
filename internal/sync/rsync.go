package sync

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// RequiredTools are the local binaries every transfer and remote command shells out to.
var RequiredTools = []string{"sshpass", "rsync", "ssh"}

var installHints = map[string]string{
	"sshpass": "Grab it with: brew install hudochenkov/sshpass/sshpass (macOS) or apt install sshpass (Linux)",
	"rsync":   "Grab it with: brew install rsync (macOS) or apt install rsync (Linux)",
	"ssh":     "Install an OpenSSH client: apt install openssh-client (Linux)",
}

// FindTool locates name on PATH.
func FindTool(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", errors.New(errors.ErrSync,
			fmt.Sprintf("%s isn't installed locally", name),
			installHint(name))
	}
	return p, nil
}

// ToolVersion returns the first line of the tool's version output.
// ssh prints its version on stderr with -V; the others answer --version.
func ToolVersion(name string) (string, error) {
	toolPath, err := FindTool(name)
	if err != nil {
		return "", err
	}

	args := []string{"--version"}
	if name == "ssh" {
		args = []string{"-V"}
	}
	cmd := exec.Command(toolPath, args...)
	out, err := cmd.CombinedOutput()
	// sshpass -V and some rsync builds exit non-zero while still printing a version.
	if len(out) == 0 && err != nil {
		return "", errors.WrapWithCode(err, errors.ErrSync,
			fmt.Sprintf("Couldn't get %s version", name),
			fmt.Sprintf("Try running '%s %s' to check your installation.", name, args[0]))
	}

	// First line typically contains version info like:
	// "rsync  version 3.2.7  protocol version 31"
	first, _, _ := strings.Cut(string(out), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", errors.New(errors.ErrSync,
			fmt.Sprintf("Couldn't parse the %s version output", name),
			fmt.Sprintf("Try running '%s %s' to check your installation.", name, args[0]))
	}
	return first, nil
}

func installHint(name string) string {
	if hint, ok := installHints[name]; ok {
		return hint
	}
	return fmt.Sprintf("Install %s and make sure it is on your PATH.", name)
}
