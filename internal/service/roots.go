package service

import (
	"context"
	"fmt"
	"path"

	"github.com/Ning0612/mistergen/internal/adapter"
	"github.com/Ning0612/mistergen/internal/config"
	"github.com/Ning0612/mistergen/internal/core/classify"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/logger"
)

const (
	primaryMount   = "/media/fat"
	removableMount = "/media/usb0"
)

// ScanBase returns the games directory and its origin for the configured source
func ScanBase(cfg *config.Config) (string, domain.Origin) {
	if cfg.Scan.Source == config.SourceUSB {
		return path.Join(removableMount, cfg.Scan.GamesDir), domain.OriginRemovable
	}
	return path.Join(primaryMount, cfg.Scan.GamesDir), domain.OriginPrimary
}

// MountFor returns the remote directory a locally mounted card stands in for
func MountFor(cfg *config.Config) string {
	if cfg.Scan.Source == config.SourceUSB {
		return removableMount
	}
	return primaryMount
}

// ResolveRoots turns the configuration into the ordered list of scan roots.
// Explicit roots win. Otherwise every directory under the games directory
// (or the named ones) is scanned, plus the arcade directory when enabled.
// The session is left at the games directory.
func ResolveRoots(ctx context.Context, cfg *config.Config, session adapter.Session) ([]domain.ScanRoot, error) {
	if len(cfg.Roots) > 0 {
		roots := make([]domain.ScanRoot, len(cfg.Roots))
		copy(roots, cfg.Roots)
		for i := range roots {
			if roots[i].LocalPath == "" {
				roots[i].LocalPath = path.Base(roots[i].RemotePath)
			}
		}
		return uniqueRoots(roots), nil
	}

	base, origin := ScanBase(cfg)
	if err := session.ChangeDir(ctx, base); err != nil {
		if domain.IsAccessError(err) {
			return nil, fmt.Errorf("%w: cannot enter %s: %v", domain.ErrInvalidConfiguration, base, err)
		}
		return nil, err
	}

	names := cfg.Scan.Directories
	if len(names) == 0 {
		var err error
		names, err = listDirectories(ctx, session, base)
		if err != nil {
			return nil, err
		}
	}

	var roots []domain.ScanRoot
	for _, name := range names {
		roots = append(roots, domain.ScanRoot{
			RemotePath: path.Join(base, name),
			LocalPath:  name,
			Origin:     origin,
		})
	}

	if cfg.Scan.IncludeArcade {
		roots = append(roots, domain.ScanRoot{
			RemotePath: path.Join(primaryMount, cfg.Scan.ArcadeDir),
			LocalPath:  cfg.Scan.ArcadeDir,
			Origin:     domain.OriginPrimary,
		})
	}

	return uniqueRoots(roots), nil
}

// uniqueRoots drops every root whose local directory is already taken by an
// earlier one, so no two walks write into the same directory
func uniqueRoots(roots []domain.ScanRoot) []domain.ScanRoot {
	taken := make(map[string]string, len(roots))
	kept := roots[:0]
	for _, r := range roots {
		if first, ok := taken[r.LocalKey()]; ok {
			logger.Get().Warn("scan root skipped, local directory already in use",
				"root", r.RemotePath, "local", r.LocalDir(), "by", first)
			continue
		}
		taken[r.LocalKey()] = r.RemotePath
		kept = append(kept, r)
	}
	return kept
}

// listDirectories returns the subdirectories of base, in listing order
func listDirectories(ctx context.Context, session adapter.Session, base string) ([]string, error) {
	names, err := session.NameList(ctx, base)
	if err != nil {
		if domain.IsAccessError(err) {
			return nil, fmt.Errorf("%w: cannot list %s: %v", domain.ErrInvalidConfiguration, base, err)
		}
		return nil, err
	}

	classifier := classify.New(session)
	var dirs []string
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		kind, err := classifier.Classify(ctx, path.Join(base, name))
		if err != nil {
			return nil, err
		}
		if kind == domain.EntryDirectory {
			dirs = append(dirs, name)
		}
	}
	return dirs, nil
}
