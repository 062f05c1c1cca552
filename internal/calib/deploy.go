// Package calib installs per-station calibration archives into the local
// configuration tree of eligible devices.
package calib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/logger"
	"github.com/rileyhilliard/mecfleet/internal/summary"
)

// Outcome texts recorded by Deploy.
const (
	NotEligibleText = "not eligible for calibration"
	SuccessText     = "success"
	DryRunText      = "Just a test"
)

// Defaults for Deployer fields left empty.
const (
	DefaultStagingRoot  = "./tmp"
	DefaultTargetSubdir = "etc/config/calibration"
)

// Deployer extracts a device's calibration archives and copies the
// <region>/<sub>/ tree of each into <device dir>/etc/config/calibration/.
type Deployer struct {
	Fs       afero.Fs
	Eligible EligibilitySet
	// StagingRoot holds one scratch directory per device during extraction.
	StagingRoot  string
	TargetSubdir string
	DryRun       bool
	Recorder     summary.Recorder
	Log          logger.Logger
}

// Deploy installs every archive assigned to dev and records exactly one outcome.
// Returns the recorded exit code.
func (d *Deployer) Deploy(dev *device.Descriptor) int {
	log := d.log()

	if !d.Eligible.Contains(dev.ID) {
		log.Warn("could not deploy calibrations for %d: %s", dev.ID, NotEligibleText)
		return d.record(dev.ID, 1, NotEligibleText)
	}

	archives := dev.Archives()
	paths := make([]ArchivePath, len(archives))
	for i, archive := range archives {
		p, err := DeriveArchivePath(archive)
		if err != nil {
			return d.record(dev.ID, 1, errors.Brief(err))
		}
		paths[i] = p
	}

	if d.DryRun {
		for i, archive := range archives {
			log.Info("would install %s from %s into %s", paths[i].Dir(), archive, d.target(dev))
		}
		return d.record(dev.ID, 0, DryRunText)
	}

	staging := filepath.Join(d.stagingRoot(), dev.PaddedID())
	defer func() {
		if err := d.Fs.RemoveAll(staging); err != nil {
			log.Warn("couldn't remove staging directory %s: %v", staging, err)
		}
	}()

	for i, archive := range archives {
		if err := d.install(archive, paths[i], staging, d.target(dev)); err != nil {
			return d.record(dev.ID, 1, errors.Brief(err))
		}
		log.Debug("installed %s into %s", archive, d.target(dev))
	}

	return d.record(dev.ID, 0, SuccessText)
}

func (d *Deployer) install(archive string, p ArchivePath, staging, target string) error {
	if err := Extract(d.Fs, archive, staging); err != nil {
		return err
	}

	src := filepath.Join(staging, p.Dir())
	exists, err := afero.DirExists(d.Fs, src)
	if err != nil || !exists {
		return errors.New(errors.ErrCalib,
			fmt.Sprintf("calibration archive %s has no %s directory", filepath.Base(archive), p.Dir()),
			"Check the archive layout matches its name.")
	}

	if err := CopyTree(d.Fs, src, target); err != nil {
		return errors.WrapWithCode(err, errors.ErrCalib,
			fmt.Sprintf("calibration archive %s: copy into %s failed", filepath.Base(archive), target), "")
	}
	return nil
}

// Extract unpacks the zip archive at path into dest. Entries that would land
// outside dest are rejected.
func Extract(fs afero.Fs, path, dest string) error {
	base := filepath.Base(path)

	f, err := fs.Open(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCalib,
			fmt.Sprintf("calibration archive %s: open failed", base), "")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCalib,
			fmt.Sprintf("calibration archive %s: stat failed", base), "")
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCalib,
			fmt.Sprintf("calibration archive %s: not a zip file", base), "")
	}

	for _, entry := range zr.File {
		if err := extractEntry(fs, entry, dest); err != nil {
			return errors.WrapWithCode(err, errors.ErrCalib,
				fmt.Sprintf("calibration archive %s: extract failed", base), "")
		}
	}
	return nil
}

func extractEntry(fs afero.Fs, entry *zip.File, dest string) error {
	target := filepath.Join(dest, entry.Name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("entry %q escapes the extraction directory", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return fs.MkdirAll(target, 0755)
	}
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return writeFile(fs, target, rc, entry.Mode().Perm())
}

// CopyTree copies the contents of src into dst, creating directories as needed
// and overwriting existing files.
func CopyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return fs.MkdirAll(target, 0755)
		}

		in, err := fs.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFile(fs, target, in, info.Mode().Perm())
	})
}

func writeFile(fs afero.Fs, path string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0644
	}
	out, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (d *Deployer) record(id, code int, text string) int {
	if d.Recorder != nil {
		d.Recorder.Record(id, code, text)
	}
	return code
}

func (d *Deployer) target(dev *device.Descriptor) string {
	sub := d.TargetSubdir
	if sub == "" {
		sub = DefaultTargetSubdir
	}
	return filepath.Join(dev.Directory, sub)
}

func (d *Deployer) stagingRoot() string {
	if d.StagingRoot == "" {
		return DefaultStagingRoot
	}
	return d.StagingRoot
}

func (d *Deployer) log() logger.Logger {
	if d.Log == nil {
		return logger.Noop()
	}
	return d.Log
}
