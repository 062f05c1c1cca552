// Package confirm guards irreversible fleet actions behind a typed challenge code.
package confirm

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// DefaultLength is the challenge length used when none is configured.
const DefaultLength = 8

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Responder asks the operator to type something back.
type Responder interface {
	Respond(prompt string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(prompt string) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(prompt string) (string, error) {
	return f(prompt)
}

// Gate issues a random code and requires the operator to echo it exactly.
type Gate struct {
	Responder Responder
	// Rand is the entropy source. Defaults to crypto/rand.
	Rand io.Reader
}

// NewGate creates a gate that prompts on the console.
func NewGate() *Gate {
	return &Gate{Responder: NewConsoleResponder(os.Stdin, os.Stdout)}
}

// Challenge generates a code of the given length and compares the operator's reply.
// Any mismatch or responder failure returns an ABORTED error.
func (g *Gate) Challenge(length int) error {
	if length <= 0 {
		length = DefaultLength
	}

	code, err := GenerateCode(g.Rand, length)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAborted,
			"Couldn't generate a confirmation code",
			"This shouldn't happen - please report this bug!")
	}

	reply, err := g.Responder.Respond(fmt.Sprintf("Please input the same characters [%s]:", code))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAborted,
			"Confirmation cancelled, nothing was changed", "")
	}
	if reply != code {
		return errors.New(errors.ErrAborted,
			"Check failure! Confirmation code did not match, nothing was changed",
			"Re-run the command and type the code exactly as shown.")
	}
	return nil
}

// GenerateCode returns length characters drawn uniformly from [a-zA-Z0-9].
func GenerateCode(r io.Reader, length int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	limit := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(r, limit)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// ConsoleResponder reads the reply from the terminal with a huh input,
// or a plain line read when input is not a terminal.
type ConsoleResponder struct {
	In  io.Reader
	Out io.Writer
}

// NewConsoleResponder creates a responder over in and out.
func NewConsoleResponder(in io.Reader, out io.Writer) *ConsoleResponder {
	return &ConsoleResponder{In: in, Out: out}
}

// Respond implements Responder.
func (c *ConsoleResponder) Respond(prompt string) (string, error) {
	if f, ok := c.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var reply string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(prompt).
					Description("This action overwrites files on the devices").
					Value(&reply),
			),
		)
		if err := form.Run(); err != nil {
			return "", err
		}
		return reply, nil
	}

	fmt.Fprint(c.Out, prompt)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
