package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want Origin
	}{
		{"fat", OriginPrimary},
		{"SD", OriginPrimary},
		{" primary ", OriginPrimary},
		{"usb", OriginRemovable},
		{"usb0", OriginRemovable},
		{"Removable", OriginRemovable},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrigin(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOrigin("cifs")
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestScanRoot_Validate(t *testing.T) {
	assert.NoError(t, ScanRoot{RemotePath: "/media/fat/games/NES", Origin: OriginPrimary}.Validate())
	assert.ErrorIs(t, ScanRoot{RemotePath: "games/NES", Origin: OriginPrimary}.Validate(), ErrConfigInvalid)
	assert.ErrorIs(t, ScanRoot{RemotePath: "", Origin: OriginPrimary}.Validate(), ErrConfigInvalid)
	assert.ErrorIs(t, ScanRoot{RemotePath: "/media/fat/games/NES", Origin: "sd"}.Validate(), ErrConfigInvalid)
}

func TestScanRoot_LocalKey(t *testing.T) {
	assert.Equal(t, "NES", ScanRoot{RemotePath: "/media/fat/games/NES"}.LocalDir())
	assert.Equal(t, "Famicom", ScanRoot{RemotePath: "/media/fat/games/NES", LocalPath: "Famicom/"}.LocalDir())
	assert.Equal(t, "a/b", ScanRoot{RemotePath: "/x", LocalPath: `a\b`}.LocalDir())

	fat := ScanRoot{RemotePath: "/media/fat/games/NES"}
	usb := ScanRoot{RemotePath: "/media/usb0/games/NES"}
	renamed := ScanRoot{RemotePath: "/media/usb0/games/Famicom", LocalPath: "./nes"}
	assert.Equal(t, fat.LocalKey(), usb.LocalKey())
	assert.Equal(t, fat.LocalKey(), renamed.LocalKey())
	assert.NotEqual(t, fat.LocalKey(), ScanRoot{RemotePath: "/media/fat/games/SNES"}.LocalKey())
}

func TestWalkStats_Merge(t *testing.T) {
	total := WalkStats{DirsVisited: 1, LaunchersWritten: 2}
	total.Warn(WarnDirectoryAccess, "/media/fat/games/NES", ErrDirectoryAccessDenied)

	other := WalkStats{DirsVisited: 3, DirsCreated: 2, DirsSkipped: 1, EntriesExcluded: 4, LaunchersWritten: 5}
	other.Warn(WarnFileWrite, "SNES/Zelda.bat", ErrFileWriteFailed)

	total.Merge(other)

	assert.Equal(t, 4, total.DirsVisited)
	assert.Equal(t, 2, total.DirsCreated)
	assert.Equal(t, 1, total.DirsSkipped)
	assert.Equal(t, 4, total.EntriesExcluded)
	assert.Equal(t, 7, total.LaunchersWritten)
	require.Len(t, total.Warnings, 2)
	assert.Equal(t, WarnFileWrite, total.Warnings[1].Kind)
	assert.True(t, total.HasWarnings())
	assert.False(t, WalkStats{}.HasWarnings())
}

func TestIsAccessError(t *testing.T) {
	assert.True(t, IsAccessError(fmt.Errorf("%w: /x", ErrNotDirectory)))
	assert.True(t, IsAccessError(fmt.Errorf("%w: /x", ErrPermissionDenied)))
	assert.True(t, IsAccessError(ErrNotFound))
	assert.False(t, IsAccessError(ErrConnectionFatal))
	assert.False(t, IsAccessError(errors.New("connection reset")))
	assert.False(t, IsAccessError(nil))
}

func TestRemoteEntry(t *testing.T) {
	e := RemoteEntry{Name: "Mario.nes", ParentPath: "/media/fat/games/NES", Kind: EntryFile}
	assert.Equal(t, "/media/fat/games/NES/Mario.nes", e.Path())
	assert.False(t, e.IsDir())
	assert.Equal(t, "/media/fat/games/NES", JoinRemote("/media/fat", "games", "NES"))
}
