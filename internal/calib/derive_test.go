package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/errors"
)

func TestDeriveArchivePath(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		want    ArchivePath
	}{
		{name: "basic", archive: "005-region7_sub3-extra.zip", want: ArchivePath{Region: "region7_sub3", SubRegion: "region7"}},
		{name: "full path", archive: "/cal/012-K23_07-20240101.zip", want: ArchivePath{Region: "K23_07", SubRegion: "K23"}},
		{name: "extra leading tokens", archive: "041-a-b-R1_x-v2.tar.zip", want: ArchivePath{Region: "R1_x", SubRegion: "R1"}},
		{name: "several underscores", archive: "3-AB_CD_EF-1.zip", want: ArchivePath{Region: "AB_CD_EF", SubRegion: "AB"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveArchivePath(tt.archive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveArchivePath_Errors(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		wantMsg string
	}{
		{name: "too few tokens", archive: "005-region7_sub3.zip", wantMsg: "want at least 3"},
		{name: "no extension or dashes", archive: "calibration", wantMsg: "want at least 3"},
		{name: "no underscore", archive: "005-region7-extra.zip", wantMsg: `region "region7" has no '_'`},
		{name: "empty head", archive: "005-_sub-extra.zip", wantMsg: "empty segment"},
		{name: "empty tail", archive: "005-region_-extra.zip", wantMsg: "empty segment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveArchivePath(tt.archive)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCalib))
			assert.Contains(t, errors.Brief(err), tt.wantMsg)
		})
	}
}

func TestArchivePath_Dir(t *testing.T) {
	assert.Equal(t, "region7_sub3/region7", ArchivePath{Region: "region7_sub3", SubRegion: "region7"}.Dir())
}
