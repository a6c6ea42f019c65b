package ftp

import (
	"context"

	"github.com/Ning0612/mistergen/internal/adapter"
)

// Factory opens a fresh FTP session per call
type Factory struct {
	Options Options
}

// NewFactory creates a session factory for opts
func NewFactory(opts Options) *Factory {
	return &Factory{Options: opts}
}

// Open dials and logs in
func (f *Factory) Open(ctx context.Context) (adapter.Session, error) {
	return Dial(ctx, f.Options)
}

var _ adapter.SessionFactory = (*Factory)(nil)
var _ adapter.Session = (*Session)(nil)
