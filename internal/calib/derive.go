package calib

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

// ArchivePath locates the calibration tree inside an extracted archive:
// files live under <Region>/<SubRegion>/.
type ArchivePath struct {
	Region    string
	SubRegion string
}

// Dir returns Region/SubRegion joined for the local filesystem.
func (p ArchivePath) Dir() string {
	return filepath.Join(p.Region, p.SubRegion)
}

// DeriveArchivePath derives the in-archive directory from the archive file name.
//
// The base name is cut at its first '.', the stem is split on '-' and the
// second-to-last token is the region. The sub-region is the region up to its
// first '_'.
//
//	005-region7_sub3-extra.zip  ->  region7_sub3/region7
func DeriveArchivePath(name string) (ArchivePath, error) {
	base := filepath.Base(name)
	stem, _, _ := strings.Cut(base, ".")
	tokens := strings.Split(stem, "-")
	if len(tokens) < 3 {
		return ArchivePath{}, derivationError(base,
			fmt.Sprintf("has %d '-' separated tokens before the extension, want at least 3", len(tokens)))
	}

	region := tokens[len(tokens)-2]
	sub, _, found := strings.Cut(region, "_")
	if !found {
		return ArchivePath{}, derivationError(base,
			fmt.Sprintf("region %q has no '_' separator", region))
	}
	if sub == "" || strings.HasSuffix(region, "_") {
		return ArchivePath{}, derivationError(base,
			fmt.Sprintf("region %q has an empty segment", region))
	}

	return ArchivePath{Region: region, SubRegion: sub}, nil
}

func derivationError(base, reason string) error {
	return errors.New(errors.ErrCalib,
		fmt.Sprintf("calibration archive %s %s", base, reason),
		"Archives are named <id>-<region>_<sub>-<suffix>.zip, e.g. 005-region7_sub3-extra.zip")
}
