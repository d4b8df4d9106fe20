// Package config loads and validates mark.yaml.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the configuration format this loader understands.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// DiscoverRoot walks up from cwd to the first directory holding mark.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	path, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Load finds, parses and validates the configuration at or above cwd.
func (l *Loader) Load(cwd string) (*domain.Pipeline, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var markfile Markfile
	if err := l.readAndUnmarshalYAML(configPath, &markfile); err != nil {
		return nil, err
	}

	if markfile.Version != "" && markfile.Version != SupportedVersion && l.Logger != nil {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", domain.ConfigFileName, markfile.Version, SupportedVersion))
	}

	p, err := buildPipeline(filepath.Dir(configPath), &markfile)
	if err != nil {
		return nil, domain.Annotate(err, "config", configPath)
	}
	return p, nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", domain.Wrap(domain.ErrConfigNotFound, err)
	}

	for dir := abs; ; {
		candidate := filepath.Join(dir, domain.ConfigFileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", domain.Annotate(domain.ErrConfigNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

func (l *Loader) readAndUnmarshalYAML(configPath string, target *Markfile) error {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrConfigReadFailed, err), "path", configPath)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrConfigParseFailed, err), "path", configPath)
	}
	return nil
}

func buildPipeline(root string, mf *Markfile) (*domain.Pipeline, error) {
	p := &domain.Pipeline{
		Root:           root,
		DefaultTargets: mf.Root,
		Parallelism:    mf.Parallelism,
		MetricsFile:    domain.DefaultMetricsPath(root),
	}

	if mf.Parallelism < 0 {
		return nil, domain.Annotate(domain.ErrConfigParseFailed, "field", "parallelism", "value", mf.Parallelism)
	}

	var err error
	if p.TaskTimeout, err = parseDuration("task_timeout", mf.TaskTimeout); err != nil {
		return nil, err
	}
	if p.LockStaleAfter, err = parseDuration("lock_stale_after", mf.LockStaleAfter); err != nil {
		return nil, err
	}
	if mf.MetricsFile != "" {
		p.MetricsFile = resolvePath(root, mf.MetricsFile)
	}

	names := make([]string, 0, len(mf.Tasks))
	for name := range mf.Tasks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		spec, err := buildTaskSpec(root, name, mf.Tasks[name])
		if err != nil {
			return nil, domain.Annotate(err, "task", name)
		}
		p.Tasks = append(p.Tasks, spec)
	}

	if err := validateReferences(p, mf.Tasks); err != nil {
		return nil, err
	}
	return p, nil
}

func buildTaskSpec(root, name string, dto *TaskDTO) (domain.TaskSpec, error) {
	if err := domain.ValidateTaskID(name); err != nil {
		return domain.TaskSpec{}, err
	}
	if dto == nil {
		return domain.TaskSpec{}, domain.ErrEmptyTask
	}

	spec := domain.TaskSpec{
		Name:         name,
		Command:      dto.Cmd,
		Dependencies: dto.DependsOn,
		Marker:       dto.Marker,
		Output:       dto.Output,
		Env:          dto.Env,
		WorkingDir:   dto.WorkingDir,
		Metrics:      dto.Metrics,
	}

	switch {
	case spec.Marker != "" && spec.Output != "":
		return spec, domain.ErrConflictingTarget
	case spec.IsWrapper() && len(spec.Dependencies) == 0:
		return spec, domain.ErrEmptyTask
	case spec.Output != "" && !domain.WithinRoot(root, spec.Output):
		return spec, domain.Annotate(domain.ErrOutputPathOutsideRoot, "path", spec.Output)
	}

	timeout, err := parseDuration("timeout", dto.Timeout)
	if err != nil {
		return spec, err
	}
	spec.Timeout = timeout
	return spec, nil
}

func validateReferences(p *domain.Pipeline, tasks map[string]*TaskDTO) error {
	for _, spec := range p.Tasks {
		for _, dep := range spec.Dependencies {
			if _, ok := tasks[dep]; !ok {
				return domain.Annotate(domain.ErrMissingDependency, "task", spec.Name, "dependency", dep)
			}
		}
	}
	for _, target := range p.DefaultTargets {
		if _, ok := tasks[target]; !ok && target != domain.AllTasks {
			return domain.Annotate(domain.ErrTaskNotFound, "task", target, "field", "root")
		}
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, domain.Annotate(domain.Wrap(domain.ErrInvalidDuration, err), "field", field)
	}
	if d < 0 {
		return 0, domain.Annotate(domain.ErrInvalidDuration, "field", field, "value", value)
	}
	return d, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
