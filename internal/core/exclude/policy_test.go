package exclude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_ExcludeDir(t *testing.T) {
	p := NewDefault()

	tests := []struct {
		name string
		want bool
	}{
		{"palettes", true},
		{"Palettes", true},
		{"PALETTES", true},
		{"/media/fat/games/NES/Palettes", true},
		{"/media/fat/games/NES/Palettes/", true},
		{"palettes2", false},
		{"my palettes", false},
		{"NES", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExcludeDir(tt.name))
		})
	}
}

func TestPolicy_ExcludeFile(t *testing.T) {
	p := NewDefault()

	tests := []struct {
		name    string
		file    string
		dirPath string
		want    bool
	}{
		{"boot rom anywhere", "boot.rom", "/media/fat/games/NES", true},
		{"boot rom case", "BOOT.ROM", "/media/usb0/games/GBA", true},
		{"plain game", "Game1.nes", "/media/fat/games/NES", false},
		{"bin in psx", "Disc1.bin", "/media/fat/games/PSX", true},
		{"bin in psx subdir", "Track 01.bin", "/media/fat/games/PSX/Final Fantasy VII", true},
		{"bin in saturn mixed case", "disc.BIN", "/media/fat/games/Saturn", true},
		{"bin outside system", "Game.bin", "/media/fat/games/Genesis", false},
		{"bin with system as substring only", "Game.bin", "/media/fat/games/PSXtras", false},
		{"cue in psx", "Disc1.cue", "/media/fat/games/PSX", false},
		{"chd in saturn", "Game.chd", "/media/fat/games/Saturn", false},
		{"bin in root", "x.bin", "/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExcludeFile(tt.file, tt.dirPath))
		})
	}
}

func TestPolicy_CustomRules(t *testing.T) {
	p := New(Rules{
		Dirs:       []string{"Cheats"},
		Files:      []string{"readme.txt"},
		Extensions: []string{"iso"},
		Systems:    []string{"MegaCD"},
	})

	assert.True(t, p.ExcludeDir("cheats"))
	assert.False(t, p.ExcludeDir("palettes"), "custom dirs replace the defaults")
	assert.True(t, p.ExcludeFile("README.TXT", "/media/fat/games/NES"))
	assert.False(t, p.ExcludeFile("boot.rom", "/media/fat/games/NES"))
	assert.True(t, p.ExcludeFile("Game.iso", "/media/fat/games/megacd"))
	assert.False(t, p.ExcludeFile("Game.iso", "/media/fat/games/PSX"))
}

func TestPolicy_BlankRulesUseDefaults(t *testing.T) {
	p := New(Rules{Dirs: []string{"  "}, Files: []string{}})

	assert.True(t, p.ExcludeDir("Palettes"))
	assert.True(t, p.ExcludeFile("boot.rom", "/"))
}

func TestPolicy_InSystemDir(t *testing.T) {
	p := NewDefault()

	assert.True(t, p.InSystemDir("/media/fat/games/psx"))
	assert.True(t, p.InSystemDir("/media/fat/games/PSX/sub"))
	assert.False(t, p.InSystemDir("/media/fat/games/NES"))
	assert.False(t, p.InSystemDir(""))
}
