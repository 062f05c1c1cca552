package exec

import (
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// DefaultSSHPort is the port devices listen on for ssh.
const DefaultSSHPort = "22"

// Prober checks that a device accepts an ssh login with the run credentials.
// Host keys are not verified, matching StrictHostKeyChecking=no on the command line.
type Prober struct {
	Port    string
	Timeout time.Duration
}

// Probe dials dev and completes an ssh handshake with password auth.
// No session is opened; the connection is closed straight away.
func (p *Prober) Probe(dev *device.Descriptor) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	port := p.Port
	if port == "" {
		port = DefaultSSHPort
	}
	address := net.JoinHostPort(dev.Address, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach %s at %s", dev.Info(), address),
			suggestionForDialError(err))
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach %s at %s", dev.Info(), address), "")
	}

	config := &ssh.ClientConfig{
		User:            dev.Credentials.User,
		Auth:            []ssh.AuthMethod{ssh.Password(dev.Credentials.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH login to %s didn't go through", dev.Info()),
			suggestionForHandshakeError(err))
	}
	return ssh.NewClient(sshConn, chans, reqs).Close()
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is sshd running on the device?"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the device. Check the address in its directory name."
	}
	if strings.Contains(errStr, "timeout") {
		return "Connection timed out. The device might be offline or firewalled."
	}
	return "Make sure the device is reachable: ping <address>"
}

func suggestionForHandshakeError(err error) string {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return "Check --user and --password (or MECFLEET_CREDENTIALS_PASSWORD)."
	}
	return "The port answered but the ssh handshake failed. Check the device's sshd."
}
