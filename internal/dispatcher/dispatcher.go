// Package dispatcher renders the top-level Launcher.bat that every
// generated launcher is executed through.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/domain"
)

// FileName is written at the output root
const FileName = "Launcher.bat"

const (
	DefaultHostVar  = "MISTERIP"
	DefaultDriveVar = "MISTERDRIVE"
	DefaultDrive    = "fat"
	DefaultAPIPort  = 8182
	DefaultOSDWait  = 5
	osdPath         = "/api/controls/keyboard/osd"
)

const launcherTemplate = `@echo off
set "{{.HostVar}}={{.Host}}:{{.APIPort}}"

rem Note: will likely be fat (for SD) or usb0 (for external/usb drive):
set "{{.DriveVar}}={{.Drive}}"

rem Launches the OSD Menu to trigger the Autosave before launching another title.
curl --request POST --url "http://%{{.HostVar}}%{{.OSDPath}}"

rem Uncomment the rem in the next line to open the mister remote control website/app when launching.
rem start "" http://%{{.HostVar}}%/control

rem Increase or decrease time (sec) for waiting for Autosave to complete.
timeout /t {{.OSDWait}}

rem For calling/launching the passed-in batch for a title.
"%~1"
`

var launcher = template.Must(template.New("dispatcher").Parse(launcherTemplate))

// Options configures the dispatcher. Zero values use the defaults, except
// Host which is required and OSDWait where zero means no wait.
type Options struct {
	Host     string
	APIPort  int
	HostVar  string
	DriveVar string
	Drive    string
	OSDWait  int
}

func (o Options) withDefaults() Options {
	if o.APIPort == 0 {
		o.APIPort = DefaultAPIPort
	}
	if o.HostVar == "" {
		o.HostVar = DefaultHostVar
	}
	if o.DriveVar == "" {
		o.DriveVar = DefaultDriveVar
	}
	if o.Drive == "" {
		o.Drive = DefaultDrive
	}
	if o.OSDWait < 0 {
		o.OSDWait = 0
	}
	return o
}

// Render returns the dispatcher script with CRLF line endings
func Render(opts Options) (string, error) {
	if opts.Host == "" {
		return "", fmt.Errorf("%w: dispatcher needs the device host", domain.ErrInvalidConfiguration)
	}
	opts = opts.withDefaults()

	var buf bytes.Buffer
	err := launcher.Execute(&buf, struct {
		Options
		OSDPath string
	}{opts, osdPath})
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(buf.String(), "\n", "\r\n"), nil
}

// Write renders the dispatcher into the output root, replacing any existing one
func Write(ctx context.Context, out adapter.Output, opts Options) error {
	content, err := Render(opts)
	if err != nil {
		return err
	}
	if err := out.Write(ctx, FileName, strings.NewReader(content)); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrFileWriteFailed, FileName, err)
	}
	return nil
}
