package classify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/domain"
)

// Classifier tells files from directories by trying to enter them.
// Listings carry names only, so the change-directory reply is the only
// reliable signal the remote protocol offers.
type Classifier struct {
	session adapter.Session
	probes  atomic.Int64
}

// New creates a classifier probing through session
func New(session adapter.Session) *Classifier {
	return &Classifier{session: session}
}

// Classify returns EntryDirectory if path can be entered, EntryFile if the
// session refuses it. The session is left at the directory it was in before
// the call. Errors other than a refusal wrap domain.ErrConnectionFatal.
func (c *Classifier) Classify(ctx context.Context, path string) (domain.EntryKind, error) {
	c.probes.Add(1)

	prev, err := c.session.CurrentDir(ctx)
	if err != nil {
		return domain.EntryFile, fatal("pwd", err)
	}

	if err := c.session.ChangeDir(ctx, path); err != nil {
		if domain.IsAccessError(err) {
			return domain.EntryFile, nil
		}
		return domain.EntryFile, fatal("probe "+path, err)
	}

	if err := c.session.ChangeDir(ctx, prev); err != nil {
		// Losing our position would corrupt every later relative step
		return domain.EntryDirectory, fatal("restore "+prev, err)
	}

	return domain.EntryDirectory, nil
}

// Probes returns how many entries have been classified
func (c *Classifier) Probes() int64 {
	return c.probes.Load()
}

func fatal(op string, err error) error {
	if errors.Is(err, domain.ErrConnectionFatal) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrConnectionFatal, op, err)
}
