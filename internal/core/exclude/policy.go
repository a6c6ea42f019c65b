package exclude

import (
	"strings"
)

// Defaults for the reserved names
var (
	DefaultDirs       = []string{"palettes"}
	DefaultFiles      = []string{"boot.rom"}
	DefaultExtensions = []string{".bin"}
	DefaultSystems    = []string{"psx", "saturn"}
)

// Rules configures the exclusion policy. Empty lists fall back to defaults.
type Rules struct {
	// Dirs are directory base names excluded with their whole subtree
	Dirs []string `mapstructure:"dirs"`

	// Files are file names excluded wherever they appear
	Files []string `mapstructure:"files"`

	// Extensions are excluded only inside a system directory
	Extensions []string `mapstructure:"extensions"`

	// Systems are path segments naming disc-based systems
	Systems []string `mapstructure:"systems"`
}

// Policy decides which remote entries never produce launchers.
// All matching is case-insensitive and does no I/O.
type Policy struct {
	dirs       map[string]struct{}
	files      map[string]struct{}
	extensions []string
	systems    map[string]struct{}
}

// New creates a policy from rules
func New(rules Rules) *Policy {
	return &Policy{
		dirs:       toSet(orDefault(rules.Dirs, DefaultDirs)),
		files:      toSet(orDefault(rules.Files, DefaultFiles)),
		extensions: normalizeExtensions(orDefault(rules.Extensions, DefaultExtensions)),
		systems:    toSet(orDefault(rules.Systems, DefaultSystems)),
	}
}

// NewDefault creates a policy with the built-in reserved names
func NewDefault() *Policy {
	return New(Rules{})
}

// ExcludeDir reports whether a directory and everything beneath it is skipped
func (p *Policy) ExcludeDir(name string) bool {
	_, ok := p.dirs[strings.ToLower(baseName(name))]
	return ok
}

// ExcludeFile reports whether the file name inside remote directory dirPath
// is skipped.
func (p *Policy) ExcludeFile(name, dirPath string) bool {
	lower := strings.ToLower(name)
	if _, ok := p.files[lower]; ok {
		return true
	}
	if !p.hasReservedExtension(lower) {
		return false
	}
	return p.InSystemDir(dirPath)
}

// InSystemDir reports whether any segment of the accumulated remote path
// names a disc-based system
func (p *Policy) InSystemDir(dirPath string) bool {
	for _, segment := range strings.Split(dirPath, "/") {
		if segment == "" {
			continue
		}
		if _, ok := p.systems[strings.ToLower(segment)]; ok {
			return true
		}
	}
	return false
}

func (p *Policy) hasReservedExtension(lowerName string) bool {
	for _, ext := range p.extensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}
	return false
}

func baseName(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func orDefault(values, defaults []string) []string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return values
		}
	}
	return defaults
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		out = append(out, v)
	}
	return out
}
