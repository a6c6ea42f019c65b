package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/adapter/ftp"
	"github.com/Ning0612/mistergen/internal/adapter/local"
	"github.com/Ning0612/mistergen/internal/config"
	"github.com/Ning0612/mistergen/internal/core/emit"
	"github.com/Ning0612/mistergen/internal/core/exclude"
	"github.com/Ning0612/mistergen/internal/core/translate"
	"github.com/Ning0612/mistergen/internal/core/walker"
	"github.com/Ning0612/mistergen/internal/dispatcher"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/lock"
	"github.com/Ning0612/mistergen/internal/logger"
	"github.com/Ning0612/mistergen/internal/progress"
	"github.com/Ning0612/mistergen/internal/state"
)

// Result summarizes one generation run
type Result struct {
	RunID      string
	Roots      []domain.ScanRoot
	Stats      domain.WalkStats
	Dispatcher bool
	StartTime  time.Time
	EndTime    time.Time
	Status     state.Status
}

// GenerateService orchestrates a generation run: root resolution, the
// output lock, the dispatcher, the per-root walks and the run history.
type GenerateService struct {
	config   *config.Config
	sessions adapter.SessionFactory
	output   adapter.Output
	lock     *lock.FileLock
	history  *state.Manager
	reporter progress.Reporter
	policy   *exclude.Policy
	emitter  *emit.Emitter
}

// Option configures a GenerateService
type Option func(*GenerateService)

// WithSessionFactory replaces the session source derived from the configuration
func WithSessionFactory(f adapter.SessionFactory) Option {
	return func(s *GenerateService) {
		s.sessions = f
	}
}

// WithHistory records every run in m
func WithHistory(m *state.Manager) Option {
	return func(s *GenerateService) {
		s.history = m
	}
}

// WithReporter sets the progress reporter
func WithReporter(r progress.Reporter) Option {
	return func(s *GenerateService) {
		s.reporter = r
	}
}

// NewGenerateService creates a generation service writing into the
// configured output directory
func NewGenerateService(cfg *config.Config, opts ...Option) (*GenerateService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	outputDir := cfg.GetOutputDir()
	output, err := local.New(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: output directory %s: %v", domain.ErrInvalidConfiguration, outputDir, err)
	}

	fileLock, err := lock.NewFileLock(output.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to create file lock: %w", err)
	}

	s := &GenerateService{
		config:   cfg,
		output:   output,
		lock:     fileLock,
		reporter: progress.NullReporter{},
		policy:   exclude.New(cfg.Exclude),
	}
	s.emitter = emit.New(output, translate.New(translate.Options{
		PrimaryPrefix: cfg.Device.PrimaryPrefix,
		MountBase:     cfg.Device.MountBase,
		DriveToken:    "%" + cfg.Device.DriveVar + "%",
	}), emit.Options{
		Extension: cfg.Output.Extension,
		HostToken: "%" + cfg.Device.HostVar + "%",
		APIPath:   cfg.Device.APIPath,
	})

	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = progress.NullReporter{}
	}
	if s.sessions == nil {
		s.sessions = SessionFactoryFor(cfg)
	}

	return s, nil
}

// SessionFactoryFor returns the session source the configuration selects:
// a mounted card when ftp.local_root is set, FTP otherwise
func SessionFactoryFor(cfg *config.Config) adapter.SessionFactory {
	if cfg.FTP.LocalRoot != "" {
		mountDir := config.ExpandPath(cfg.FTP.LocalRoot)
		remoteBase := MountFor(cfg)
		return adapter.SessionFactoryFunc(func(ctx context.Context) (adapter.Session, error) {
			return local.NewSession(mountDir, remoteBase)
		})
	}
	return ftp.NewFactory(ftp.Options{
		Host:     cfg.FTP.Host,
		Port:     cfg.FTP.Port,
		User:     cfg.FTP.User,
		Password: cfg.FTP.Password,
		Timeout:  cfg.FTP.Timeout,
	})
}

// OutputDir returns the absolute output directory
func (s *GenerateService) OutputDir() string {
	return s.output.Root()
}

// GetLockHolder returns information about a run holding the output directory
func (s *GenerateService) GetLockHolder() (*lock.LockInfo, error) {
	return s.lock.GetHolder()
}

// ForceUnlock forcibly releases the output lock
func (s *GenerateService) ForceUnlock() error {
	return s.lock.ForceRelease()
}

// WriteDispatcher (re)writes Launcher.bat at the output root
func (s *GenerateService) WriteDispatcher(ctx context.Context) error {
	return dispatcher.Write(ctx, s.output, dispatcher.Options{
		Host:     s.config.FTP.Host,
		APIPort:  s.config.Device.APIPort,
		HostVar:  s.config.Device.HostVar,
		DriveVar: s.config.Device.DriveVar,
		Drive:    s.config.Device.Drive,
		OSDWait:  s.config.Output.OSDWait,
	})
}

// Generate runs a full generation. Directory-scoped problems end up as
// warnings in the result (status partial); fatal errors are returned along
// with the partial result.
func (s *GenerateService) Generate(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.With("run", result.RunID)

	err := s.generate(ctx, log, result)

	result.EndTime = time.Now()
	result.Status = state.StatusOf(len(result.Stats.Warnings), err)
	s.record(log, result, err)

	if err != nil {
		log.Error("generation failed", "error", err, "launchers", result.Stats.LaunchersWritten)
		return result, err
	}

	log.Info("generation completed",
		"status", string(result.Status),
		"roots", len(result.Roots),
		"launchers", result.Stats.LaunchersWritten,
		"dirs_skipped", result.Stats.DirsSkipped,
		"warnings", len(result.Stats.Warnings),
		"elapsed", result.EndTime.Sub(result.StartTime).Round(time.Millisecond),
	)
	return result, nil
}

func (s *GenerateService) generate(ctx context.Context, log logger.Logger, result *Result) error {
	pool := newSessionPool(s.sessions)
	defer pool.Close()

	log.Debug("opening session")
	session, err := pool.get(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	roots, err := ResolveRoots(ctx, s.config, session)
	if err != nil {
		return err
	}
	pool.put(session)
	result.Roots = roots

	log.Info("acquiring lock", "output", s.output.Root())
	if err := s.lock.Acquire(result.RunID, rootPaths(roots)); err != nil {
		return fmt.Errorf("failed to acquire output lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Error("failed to release output lock", "error", err)
		}
	}()

	if s.config.Output.Dispatcher {
		if s.config.FTP.Host == "" {
			log.Warn("no device host configured, dispatcher not written")
		} else {
			if err := s.WriteDispatcher(ctx); err != nil {
				return err
			}
			result.Dispatcher = true
		}
	}

	return s.walkRoots(ctx, log, pool, roots, &result.Stats)
}

// walkRoots walks every root, at most config.Workers at a time, each over
// its own session. The first fatal error cancels the remaining walks.
func (s *GenerateService) walkRoots(ctx context.Context, log logger.Logger, pool *sessionPool, roots []domain.ScanRoot, total *domain.WalkStats) error {
	s.reporter.SetTotal(len(roots))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for _, root := range roots {
		g.Go(func() error {
			session, err := pool.get(gctx)
			if err != nil {
				return fmt.Errorf("failed to open session for %s: %w", root.RemotePath, err)
			}

			s.reporter.StartRoot(root.RemotePath)
			w := walker.New(session, s.policy, s.emitter, s.output,
				walker.WithReporter(s.reporter),
				walker.WithLogger(log),
			)
			stats, err := w.Walk(gctx, root)

			mu.Lock()
			total.Merge(stats)
			mu.Unlock()

			if err != nil {
				pool.discard(session)
				return fmt.Errorf("%s: %w", root.RemotePath, err)
			}
			pool.put(session)
			s.reporter.RootDone(root.RemotePath)
			return nil
		})
	}

	return g.Wait()
}

// record stores the run in the history database, if one is configured
func (s *GenerateService) record(log logger.Logger, result *Result, runErr error) {
	if s.history == nil {
		return
	}

	rec := state.RunRecord{
		RunID:       result.RunID,
		Roots:       rootPaths(result.Roots),
		OutputDir:   s.output.Root(),
		StartTime:   result.StartTime,
		EndTime:     result.EndTime,
		Status:      result.Status,
		Launchers:   result.Stats.LaunchersWritten,
		DirsVisited: result.Stats.DirsVisited,
		DirsSkipped: result.Stats.DirsSkipped,
		Excluded:    result.Stats.EntriesExcluded,
		Warnings:    len(result.Stats.Warnings),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.history.SaveRun(rec); err != nil {
		log.Warn("failed to record run history", "error", err)
	}
}

// Close releases the history database
func (s *GenerateService) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

func rootPaths(roots []domain.ScanRoot) []string {
	paths := make([]string, len(roots))
	for i, r := range roots {
		paths[i] = r.RemotePath
	}
	return paths
}

var _ io.Closer = (*GenerateService)(nil)
