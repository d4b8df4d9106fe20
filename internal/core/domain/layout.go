package domain

import (
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the name of the internal state directory.
	StateDirName = ".mark"

	// TargetsDirName holds one marker per store-backed target.
	TargetsDirName = "targets"

	// LocksDirName holds per-target lock files.
	LocksDirName = "locks"

	// MetricsFileName is the default metrics sink.
	MetricsFileName = "metrics.jsonl"

	// ConfigFileName is the name of the pipeline configuration file.
	ConfigFileName = "mark.yaml"

	// MetricsFileEnv names the variable through which a task learns where to write metrics.
	MetricsFileEnv = "MARK_METRICS_FILE"

	// TaskEnv names the variable that carries the running task's id.
	TaskEnv = "MARK_TASK"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStatePath returns the state directory below root.
func DefaultStatePath(root string) string {
	return filepath.Join(root, StateDirName)
}

// DefaultTargetsPath returns where store-backed markers live.
func DefaultTargetsPath(root string) string {
	return filepath.Join(root, StateDirName, TargetsDirName)
}

// DefaultLocksPath returns where target lock files live.
func DefaultLocksPath(root string) string {
	return filepath.Join(root, StateDirName, LocksDirName)
}

// DefaultMetricsPath returns the default metrics sink below root.
func DefaultMetricsPath(root string) string {
	return filepath.Join(root, StateDirName, MetricsFileName)
}

// WithinRoot reports whether path lies strictly below root. A relative
// path is taken relative to root.
func WithinRoot(root, path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
