package attract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Ning0612/mistergen/internal/domain"
)

// GamelistFileName is the cached scan kept in the output directory
const GamelistFileName = "attract_gamelist.json"

// Gamelist is the set of launchers attract mode picks from
type Gamelist struct {
	// Root is the absolute output directory that was scanned
	Root string `json:"root"`

	// Games are launcher paths relative to Root, slash separated
	Games []string `json:"games"`

	ScannedAt time.Time `json:"scanned_at"`
}

// Scan collects every launcher under root with the given extension,
// skipping the dispatcher script itself
func Scan(ctx context.Context, root, extension, dispatcherName string) (*Gamelist, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	var games []string
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), extension) || strings.EqualFold(name, dispatcherName) {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		games = append(games, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", absRoot, err)
	}

	sort.Strings(games)
	return &Gamelist{Root: absRoot, Games: games, ScannedAt: time.Now()}, nil
}

// LoadGamelist reads a cached gamelist. A missing file wraps domain.ErrNotFound.
func LoadGamelist(path string) (*Gamelist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}

	var list Gamelist
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("corrupt gamelist %s: %w", path, err)
	}
	return &list, nil
}

// Save writes the gamelist to path
func (g *Gamelist) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrFileWriteFailed, path, err)
	}
	return nil
}

// Path returns the absolute path of game i
func (g *Gamelist) Path(i int) string {
	return filepath.Join(g.Root, filepath.FromSlash(g.Games[i]))
}

// DisplayName returns a launcher's base name without extension
func DisplayName(game string) string {
	base := filepath.Base(filepath.FromSlash(game))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
