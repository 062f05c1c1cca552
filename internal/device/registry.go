package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/logger"
)

// Registry indexes devices by id.
type Registry map[int]*Descriptor

// Build scans the immediate subdirectories of root and parses each into a Descriptor.
//
// A malformed directory name is logged and skipped so one bad entry never blocks
// a fleet run. When two directories carry the same id the first one in lexical
// order is kept and the other is reported. Only an unreadable root is an error.
func Build(fs afero.Fs, root string, creds Credentials, log logger.Logger) (Registry, error) {
	if log == nil {
		log = logger.Noop()
	}

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read device root %s", root),
			"Check --dir points at the directory holding <id>-<station>-<address> folders.")
	}

	// afero.ReadDir sorts by name, so first-wins is deterministic.
	reg := make(Registry)
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !isDir(fs, dir, entry) {
			log.Warn("skipping %s: not a directory", dir)
			continue
		}

		dev, err := New(dir, creds)
		if err != nil {
			log.Warn("skipping %s: %s", dir, errors.Brief(err))
			continue
		}

		if existing, ok := reg[dev.ID]; ok {
			log.Warn("duplicate device id %d: keeping %s, ignoring %s", dev.ID, existing.Directory, dev.Directory)
			continue
		}
		reg[dev.ID] = dev
	}

	log.Debug("registry built from %s: %d devices", root, len(reg))
	return reg, nil
}

// isDir follows symlinks, which afero.ReadDir reports without resolving.
func isDir(fs afero.Fs, path string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// IDs returns the registered ids in ascending order.
func (r Registry) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Get returns the device with the given id.
func (r Registry) Get(id int) (*Descriptor, bool) {
	d, ok := r[id]
	return d, ok
}

// AssignArchives attaches every calibration archive found in dir to the device
// whose id matches the archive name's leading '-' token.
//
// A missing directory means there is nothing to deploy and is not an error.
// Archives for unknown devices and names without a numeric prefix are logged and skipped.
// Returns the number of archives assigned.
func (r Registry) AssignArchives(fs afero.Fs, dir string, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.Noop()
	}

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't stat calibration directory %s", dir),
			"Check --califiles and its permissions.")
	}
	if !exists {
		log.Debug("calibration directory %s not found, no archives assigned", dir)
		return 0, nil
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read calibration directory %s", dir),
			"Check --califiles and its permissions.")
	}

	assigned := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		prefix, _, _ := strings.Cut(name, "-")
		id, err := strconv.Atoi(prefix)
		if err != nil {
			log.Warn("skipping calibration archive %s: name does not start with a device id", name)
			continue
		}
		dev, ok := r[id]
		if !ok {
			log.Warn("calibration archive %s: device with id=%d does not exist", name, id)
			continue
		}
		dev.AddArchive(filepath.Join(dir, name))
		assigned++
	}

	return assigned, nil
}
