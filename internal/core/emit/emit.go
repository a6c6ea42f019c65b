package emit

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/core/translate"
	"github.com/Ning0612/mistergen/internal/domain"
)

const (
	// DefaultExtension is the launcher file extension
	DefaultExtension = ".bat"
	// DefaultHostToken is expanded by the dispatcher to host:port
	DefaultHostToken = "%MISTERIP%"
	// DefaultAPIPath is the device's launch endpoint
	DefaultAPIPath = "/api/launch"
)

// commandTemplate posts {"path": ...} to the launch endpoint. Inner quotes
// are backslash escaped for cmd.exe.
const commandTemplate = `curl --request POST --url "http://{{.Host}}{{.APIPath}}" --data "{\"path\":\"{{.Path}}\"}"`

var command = template.Must(template.New("launcher").Parse(commandTemplate))

// Options configures the emitter. Zero values use the defaults.
type Options struct {
	Extension string
	HostToken string
	APIPath   string
}

// Emitter writes one launcher artifact per retained remote file
type Emitter struct {
	out        adapter.Output
	translator *translate.Translator
	extension  string
	hostToken  string
	apiPath    string
}

// New creates an emitter writing into out
func New(out adapter.Output, translator *translate.Translator, opts Options) *Emitter {
	e := &Emitter{
		out:        out,
		translator: translator,
		extension:  opts.Extension,
		hostToken:  opts.HostToken,
		apiPath:    opts.APIPath,
	}
	if e.extension == "" {
		e.extension = DefaultExtension
	}
	if !strings.HasPrefix(e.extension, ".") {
		e.extension = "." + e.extension
	}
	if e.hostToken == "" {
		e.hostToken = DefaultHostToken
	}
	if e.apiPath == "" {
		e.apiPath = DefaultAPIPath
	}
	return e
}

// Render returns the command line for remotePath
func (e *Emitter) Render(remotePath string, origin domain.Origin) (string, error) {
	var buf bytes.Buffer
	err := command.Execute(&buf, struct {
		Host    string
		APIPath string
		Path    string
	}{
		Host:    e.hostToken,
		APIPath: e.apiPath,
		Path:    e.translator.Translate(remotePath, origin),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LauncherName returns the artifact base name for a remote file name
func (e *Emitter) LauncherName(remoteName string) string {
	return strings.TrimSuffix(remoteName, path.Ext(remoteName)) + e.extension
}

// Emit renders and writes the launcher for remotePath into localDir
// (relative to the output root). An existing artifact is overwritten.
func (e *Emitter) Emit(ctx context.Context, remotePath string, origin domain.Origin, localDir string) (domain.GeneratedLauncher, error) {
	localPath := path.Join(localDir, e.LauncherName(path.Base(remotePath)))

	content, err := e.Render(remotePath, origin)
	if err != nil {
		return domain.GeneratedLauncher{}, fmt.Errorf("%w: render %s: %v", domain.ErrFileWriteFailed, localPath, err)
	}

	if err := e.out.Write(ctx, localPath, strings.NewReader(content)); err != nil {
		return domain.GeneratedLauncher{}, fmt.Errorf("%w: %s: %v", domain.ErrFileWriteFailed, localPath, err)
	}

	return domain.GeneratedLauncher{
		LocalPath:  localPath,
		RemotePath: remotePath,
		Content:    content,
	}, nil
}
