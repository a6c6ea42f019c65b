package walker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/core/classify"
	"github.com/Ning0612/mistergen/internal/core/emit"
	"github.com/Ning0612/mistergen/internal/core/exclude"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/logger"
	"github.com/Ning0612/mistergen/internal/progress"
)

// Skip reasons reported for directories that produce nothing
const (
	ReasonReserved     = "reserved name"
	ReasonAccessDenied = "access denied"
	ReasonEmpty        = "empty after exclusion"
)

// Walker mirrors one remote tree into launcher artifacts.
// It owns the session position for the duration of Walk; a Walker must not
// be shared between goroutines.
type Walker struct {
	session    adapter.Session
	classifier *classify.Classifier
	policy     *exclude.Policy
	emitter    *emit.Emitter
	output     adapter.Output
	reporter   progress.Reporter
	log        logger.Logger
}

// Option configures a Walker
type Option func(*Walker)

// WithReporter sets the progress reporter
func WithReporter(r progress.Reporter) Option {
	return func(w *Walker) {
		if r != nil {
			w.reporter = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.log = l
		}
	}
}

// New creates a walker over session writing through emitter into output
func New(session adapter.Session, policy *exclude.Policy, emitter *emit.Emitter, output adapter.Output, opts ...Option) *Walker {
	w := &Walker{
		session:    session,
		classifier: classify.New(session),
		policy:     policy,
		emitter:    emitter,
		output:     output,
		reporter:   progress.NullReporter{},
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Classifier exposes the walker's classifier (probe counts in tests)
func (w *Walker) Classifier() *classify.Classifier {
	return w.classifier
}

// Walk processes one scan root depth-first. Directory-scoped problems are
// recorded as warnings in the returned stats; only fatal errors (connection
// loss, cancellation) are returned, together with the partial stats.
func (w *Walker) Walk(ctx context.Context, root domain.ScanRoot) (domain.WalkStats, error) {
	var stats domain.WalkStats

	if err := root.Validate(); err != nil {
		return stats, err
	}

	log := w.log.With("root", root.RemotePath, "origin", string(root.Origin))
	log.Info("walking scan root", "local", root.LocalPath)

	err := w.walkDir(ctx, path.Clean(root.RemotePath), cleanLocal(root.LocalPath), root.Origin, &stats)
	if err != nil {
		log.Error("walk aborted", "error", err, "launchers", stats.LaunchersWritten)
		return stats, err
	}

	log.Info("scan root done",
		"launchers", stats.LaunchersWritten,
		"dirs_created", stats.DirsCreated,
		"dirs_skipped", stats.DirsSkipped,
		"warnings", len(stats.Warnings),
	)
	return stats, nil
}

// walkDir runs enter, list, classify, materialize, emit and recurse for one
// directory. On return the session is positioned at remotePath, or the
// error is fatal.
func (w *Walker) walkDir(ctx context.Context, remotePath, localPath string, origin domain.Origin, stats *domain.WalkStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Enter
	if w.policy.ExcludeDir(remotePath) {
		w.log.Info("skipping reserved directory", "path", remotePath)
		w.reporter.Skip(remotePath, ReasonReserved)
		return nil
	}

	// List
	names, err := w.list(ctx, remotePath)
	if err != nil {
		if !isAccess(err) {
			return err
		}
		w.log.Warn("cannot access directory, skipping", "path", remotePath, "error", err)
		stats.Warn(domain.WarnDirectoryAccess, remotePath, fmt.Errorf("%w: %v", domain.ErrDirectoryAccessDenied, err))
		w.reporter.Error(remotePath, err)
		w.skip(stats, remotePath, ReasonAccessDenied)
		return nil
	}
	stats.DirsVisited++

	// Classify & Filter
	var files, dirs []string
	for _, name := range names {
		if name == "." || name == ".." || name == "" {
			continue
		}
		// Reserved directory names are dropped before classification
		if w.policy.ExcludeDir(name) {
			w.log.Info("skipping reserved directory", "path", domain.JoinRemote(remotePath, name))
			continue
		}
		if w.policy.ExcludeFile(name, remotePath) {
			w.log.Debug("excluded entry", "path", domain.JoinRemote(remotePath, name))
			stats.EntriesExcluded++
			continue
		}

		kind, err := w.classifier.Classify(ctx, domain.JoinRemote(remotePath, name))
		if err != nil {
			return err
		}
		if kind == domain.EntryDirectory {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}

	// Materialize
	if len(files) == 0 && len(dirs) == 0 {
		w.log.Debug("skipping empty directory", "path", remotePath)
		w.skip(stats, remotePath, ReasonEmpty)
		return nil
	}

	if len(files) > 0 {
		if err := w.output.Mkdir(ctx, localPath); err != nil {
			// Every launcher below would fail the same way
			w.log.Warn("cannot create local directory", "path", localPath, "error", err)
			for _, name := range files {
				stats.Warn(domain.WarnFileWrite, path.Join(localPath, w.emitter.LauncherName(name)),
					fmt.Errorf("%w: %v", domain.ErrFileWriteFailed, err))
			}
			w.reporter.Error(localPath, err)
		} else {
			stats.DirsCreated++
			w.emitAll(ctx, remotePath, localPath, origin, files, stats)
		}
	}

	// Recurse
	for _, name := range dirs {
		childRemote := domain.JoinRemote(remotePath, name)
		childLocal := path.Join(localPath, name)
		if err := w.walkDir(ctx, childRemote, childLocal, origin, stats); err != nil {
			return err
		}
		if err := w.restore(ctx, remotePath); err != nil {
			return err
		}
	}

	return nil
}

// restore returns the shared session position to remotePath after a child
func (w *Walker) restore(ctx context.Context, remotePath string) error {
	cwd, err := w.session.CurrentDir(ctx)
	if err == nil && cwd == remotePath {
		return nil
	}
	if err := w.session.ChangeDir(ctx, remotePath); err != nil {
		return fatal("restore "+remotePath, err)
	}
	return nil
}

// list enters remotePath and enumerates it
func (w *Walker) list(ctx context.Context, remotePath string) ([]string, error) {
	if err := w.session.ChangeDir(ctx, remotePath); err != nil {
		if isAccess(err) {
			return nil, err
		}
		return nil, fatal("cwd "+remotePath, err)
	}

	names, err := w.session.NameList(ctx, remotePath)
	if err != nil {
		if isAccess(err) {
			return nil, err
		}
		return nil, fatal("list "+remotePath, err)
	}
	return names, nil
}

// emitAll writes one launcher per retained file; failures only skip that file
func (w *Walker) emitAll(ctx context.Context, remotePath, localPath string, origin domain.Origin, files []string, stats *domain.WalkStats) {
	w.log.Info("processing directory", "path", remotePath, "files", len(files))
	w.reporter.Directory(remotePath, len(files))

	for _, name := range files {
		launcher, err := w.emitter.Emit(ctx, domain.JoinRemote(remotePath, name), origin, localPath)
		if err != nil {
			w.log.Warn("failed to write launcher", "path", path.Join(localPath, name), "error", err)
			stats.Warn(domain.WarnFileWrite, path.Join(localPath, w.emitter.LauncherName(name)), err)
			w.reporter.Error(path.Join(localPath, name), err)
			continue
		}
		stats.LaunchersWritten++
		w.reporter.Launcher(launcher.LocalPath)
	}
}

func (w *Walker) skip(stats *domain.WalkStats, remotePath, reason string) {
	stats.DirsSkipped++
	w.reporter.Skip(remotePath, reason)
}

func isAccess(err error) bool {
	return domain.IsAccessError(err) && !errors.Is(err, domain.ErrConnectionFatal)
}

func fatal(op string, err error) error {
	if errors.Is(err, domain.ErrConnectionFatal) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrConnectionFatal, op, err)
}

// cleanLocal normalizes a local root to a slash separated relative path
func cleanLocal(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if p == "/" {
		return "."
	}
	return p[1:]
}
