package config

import (
	"gopkg.in/yaml.v3"
)

// Markfile represents the structure of mark.yaml.
type Markfile struct {
	Version        string              `yaml:"version"`
	Root           StringList          `yaml:"root"`
	Parallelism    int                 `yaml:"parallelism"`
	TaskTimeout    string              `yaml:"task_timeout"`
	LockStaleAfter string              `yaml:"lock_stale_after"`
	MetricsFile    string              `yaml:"metrics_file"`
	Tasks          map[string]*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Cmd        Command           `yaml:"cmd"`
	DependsOn  []string          `yaml:"depends_on"`
	Marker     string            `yaml:"marker"`
	Output     string            `yaml:"output"`
	Timeout    string            `yaml:"timeout"`
	Env        map[string]string `yaml:"env"`
	WorkingDir string            `yaml:"working_dir"`
	Metrics    string            `yaml:"metrics"`
}

// StringList accepts either a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Command is an argv. A plain string is run through "sh -c".
type Command []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			*c = nil
			return nil
		}
		*c = Command{"sh", "-c", node.Value}
		return nil
	}
	var argv []string
	if err := node.Decode(&argv); err != nil {
		return err
	}
	*c = argv
	return nil
}
