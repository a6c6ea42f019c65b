package dispatcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/mistergen/internal/adapter/local"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/testutil"
)

func TestRender_Defaults(t *testing.T) {
	content, err := Render(Options{Host: "192.168.2.56"})
	require.NoError(t, err)

	lines := strings.Split(content, "\r\n")
	assert.Equal(t, "@echo off", lines[0])
	assert.Equal(t, `set "MISTERIP=192.168.2.56:8182"`, lines[1])
	assert.Contains(t, lines, `set "MISTERDRIVE=fat"`)
	assert.Contains(t, lines, `curl --request POST --url "http://%MISTERIP%/api/controls/keyboard/osd"`)
	assert.Contains(t, lines, "timeout /t 0")
	assert.Contains(t, lines, `"%~1"`)
	assert.NotContains(t, strings.ReplaceAll(content, "\r\n", ""), "\n", "every line ends in CRLF")
}

func TestRender_Custom(t *testing.T) {
	content, err := Render(Options{
		Host:     "mister.local",
		APIPort:  9000,
		HostVar:  "MIP",
		DriveVar: "MDRIVE",
		Drive:    "usb0",
		OSDWait:  8,
	})
	require.NoError(t, err)

	assert.Contains(t, content, `set "MIP=mister.local:9000"`)
	assert.Contains(t, content, `set "MDRIVE=usb0"`)
	assert.Contains(t, content, `"http://%MIP%/api/controls/keyboard/osd"`)
	assert.Contains(t, content, "timeout /t 8\r\n")
}

func TestRender_MissingHost(t *testing.T) {
	_, err := Render(Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestWrite(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	out, err := local.New(dir)
	require.NoError(t, err)

	opts := Options{Host: "10.0.0.5", OSDWait: DefaultOSDWait}
	require.NoError(t, Write(context.Background(), out, opts))

	want, err := Render(opts)
	require.NoError(t, err)
	assert.Equal(t, want, testutil.ReadFile(t, dir, FileName))

	// Rewriting replaces the file in place
	opts.OSDWait = 2
	require.NoError(t, Write(context.Background(), out, opts))
	assert.Contains(t, testutil.ReadFile(t, dir, FileName), "timeout /t 2")
}

func TestWrite_Failure(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	out, err := local.New(dir)
	require.NoError(t, err)

	// A non-empty directory where the file should go cannot be replaced
	testutil.CreateTestFile(t, dir, FileName+"/keep", []byte("x"))

	err = Write(context.Background(), out, Options{Host: "10.0.0.5"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFileWriteFailed))
}
