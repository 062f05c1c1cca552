package confirm

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

var promptCode = regexp.MustCompile(`\[([a-zA-Z0-9]+)\]`)

// echoResponder answers with the code shown in the prompt.
func echoResponder(prompts *[]string) Responder {
	return ResponderFunc(func(prompt string) (string, error) {
		*prompts = append(*prompts, prompt)
		m := promptCode.FindStringSubmatch(prompt)
		if m == nil {
			return "", fmt.Errorf("no code in prompt %q", prompt)
		}
		return m[1], nil
	})
}

func TestGate_Challenge_Match(t *testing.T) {
	var prompts []string
	g := &Gate{Responder: echoResponder(&prompts)}

	require.NoError(t, g.Challenge(8))

	require.Len(t, prompts, 1)
	m := promptCode.FindStringSubmatch(prompts[0])
	require.NotNil(t, m)
	assert.Len(t, m[1], 8)
}

func TestGate_Challenge_Mismatch(t *testing.T) {
	g := &Gate{Responder: ResponderFunc(func(string) (string, error) { return "nope", nil })}

	err := g.Challenge(8)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAborted))
}

func TestGate_Challenge_SurroundingWhitespaceRejected(t *testing.T) {
	for _, pad := range []string{" %s", "%s ", "\t%s\t"} {
		g := &Gate{Responder: ResponderFunc(func(prompt string) (string, error) {
			m := promptCode.FindStringSubmatch(prompt)
			require.NotNil(t, m)
			return fmt.Sprintf(pad, m[1]), nil
		})}

		err := g.Challenge(8)

		require.Error(t, err, "reply pattern %q", pad)
		assert.True(t, errors.IsCode(err, errors.ErrAborted))
	}
}

func TestGate_Challenge_ResponderError(t *testing.T) {
	g := &Gate{Responder: ResponderFunc(func(string) (string, error) { return "", fmt.Errorf("interrupted") })}

	err := g.Challenge(8)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAborted))
}

func TestGate_Challenge_DefaultLength(t *testing.T) {
	var prompts []string
	g := &Gate{Responder: echoResponder(&prompts)}

	require.NoError(t, g.Challenge(0))
	assert.Len(t, promptCode.FindStringSubmatch(prompts[0])[1], DefaultLength)
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateCode(nil, 12)
		require.NoError(t, err)
		assert.Regexp(t, `^[a-zA-Z0-9]{12}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes vary between calls")
}

func TestGenerateCode_ShortEntropy(t *testing.T) {
	_, err := GenerateCode(strings.NewReader(""), 8)
	assert.Error(t, err)
}

func TestConsoleResponder_LineRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "newline", input: "abc123\n", want: "abc123"},
		{name: "crlf", input: "abc123\r\n", want: "abc123"},
		{name: "eof without newline", input: "abc123", want: "abc123"},
		{name: "surrounding spaces kept", input: " abc123 \n", want: " abc123 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewConsoleResponder(strings.NewReader(tt.input), &out)

			got, err := r.Respond("type it:")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "type it:", out.String())
		})
	}
}

func TestConsoleResponder_EmptyInput(t *testing.T) {
	r := NewConsoleResponder(strings.NewReader(""), &bytes.Buffer{})

	_, err := r.Respond("type it:")
	assert.Error(t, err)
}
