package domain

// WarningKind classifies a non-fatal problem met during a walk
type WarningKind string

const (
	WarnDirectoryAccess WarningKind = "directory_access"
	WarnFileWrite       WarningKind = "file_write"
)

// Warning records one offending path
type Warning struct {
	Kind WarningKind
	Path string
	Err  error
}

// WalkStats summarizes a walk over one or more roots
type WalkStats struct {
	DirsVisited      int
	DirsCreated      int
	DirsSkipped      int
	EntriesExcluded  int
	LaunchersWritten int
	Warnings         []Warning
}

// Merge adds other into s
func (s *WalkStats) Merge(other WalkStats) {
	s.DirsVisited += other.DirsVisited
	s.DirsCreated += other.DirsCreated
	s.DirsSkipped += other.DirsSkipped
	s.EntriesExcluded += other.EntriesExcluded
	s.LaunchersWritten += other.LaunchersWritten
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// Warn appends a warning
func (s *WalkStats) Warn(kind WarningKind, path string, err error) {
	s.Warnings = append(s.Warnings, Warning{Kind: kind, Path: path, Err: err})
}

// HasWarnings returns true if any subtree or artifact was skipped due to an error
func (s WalkStats) HasWarnings() bool {
	return len(s.Warnings) > 0
}
