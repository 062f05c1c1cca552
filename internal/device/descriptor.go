// Package device models fleet members and the local directory tree they are
// discovered from.
//
// Each device owns one directory directly under the fleet root, named
// <id>-<station>-<address>, for example:
//
//	fleet/
//	  001-K12+300-10.0.1.21/
//	  002-K12+800-10.0.1.22/
package device

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// Placeholders substituted by Expand.
const (
	PlaceholderID      = "${ID}"
	PlaceholderAddress = "${IP}"
	PlaceholderStation = "${ROD}"
)

// Credentials is the login shared by every device in a run.
type Credentials struct {
	User     string
	Password string
}

// Descriptor is one fleet member.
type Descriptor struct {
	ID          int
	Station     string
	Address     string
	Directory   string
	Credentials Credentials

	archives map[string]struct{}
}

// New parses dir's base name into a Descriptor.
// The name must be exactly three '-' separated tokens with an integer first token.
func New(dir string, creds Credentials) (*Descriptor, error) {
	id, station, address, err := ParseName(filepath.Base(dir))
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		ID:          id,
		Station:     station,
		Address:     address,
		Directory:   dir,
		Credentials: creds,
		archives:    make(map[string]struct{}),
	}, nil
}

// ParseName splits a device directory name into id, station tag and address.
func ParseName(name string) (id int, station, address string, err error) {
	parts := strings.Split(name, "-")
	if len(parts) != 3 {
		return 0, "", "", errors.New(errors.ErrDevice,
			fmt.Sprintf("Directory name %q has %d '-' separated tokens, want 3", name, len(parts)),
			"Device directories are named <id>-<station>-<address>, e.g. 001-K12+300-10.0.1.21")
	}
	id, convErr := strconv.Atoi(parts[0])
	if convErr != nil {
		return 0, "", "", errors.WrapWithCode(convErr, errors.ErrDevice,
			fmt.Sprintf("Directory name %q does not start with a numeric id", name),
			"Device directories are named <id>-<station>-<address>, e.g. 001-K12+300-10.0.1.21")
	}
	if parts[1] == "" || parts[2] == "" {
		return 0, "", "", errors.New(errors.ErrDevice,
			fmt.Sprintf("Directory name %q has an empty station or address", name),
			"Device directories are named <id>-<station>-<address>, e.g. 001-K12+300-10.0.1.21")
	}
	if strings.ContainsAny(name, shellMetaChars) {
		return 0, "", "", errors.New(errors.ErrDevice,
			fmt.Sprintf("Directory name %q contains shell metacharacters", name),
			"Station and address end up in shell commands; rename the directory to use letters, digits, '.', '+' or '_'.")
	}
	return id, parts[1], parts[2], nil
}

// shellMetaChars are rejected in directory names because station and address
// are substituted into shell command lines.
const shellMetaChars = " \t\n;&|$`'\"\\<>(){}[]*?!#~"

// PaddedID returns the id zero-padded to three digits.
func (d *Descriptor) PaddedID() string {
	return fmt.Sprintf("%03d", d.ID)
}

// Info is the one-line label used in operator output.
func (d *Descriptor) Info() string {
	return d.PaddedID() + "#" + d.Station + "#" + d.Address
}

// Expand substitutes ${ID}, ${IP} and ${ROD} in template.
func (d *Descriptor) Expand(template string) string {
	r := strings.NewReplacer(
		PlaceholderID, d.PaddedID(),
		PlaceholderAddress, d.Address,
		PlaceholderStation, d.Station,
	)
	return r.Replace(template)
}

// RemoteTarget returns user@address, the ssh/rsync destination for this device.
func (d *Descriptor) RemoteTarget() string {
	return d.Credentials.User + "@" + d.Address
}

// AddArchive assigns a calibration archive to the device. Adding the same path twice is a no-op.
func (d *Descriptor) AddArchive(path string) {
	if d.archives == nil {
		d.archives = make(map[string]struct{})
	}
	d.archives[path] = struct{}{}
}

// Archives returns the assigned calibration archives in sorted order.
func (d *Descriptor) Archives() []string {
	out := make([]string, 0, len(d.archives))
	for p := range d.archives {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
