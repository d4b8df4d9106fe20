package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mark/internal/adapters/shell"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestExecutor_StreamsOutput(t *testing.T) {
	var out bytes.Buffer
	spec := &domain.TaskSpec{Name: "hello", Command: []string{"echo", "hello world"}}

	err := shell.NewExecutor().Execute(context.Background(), spec, nil, &out, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "hello world")
}

func TestExecutor_NonZeroExit(t *testing.T) {
	spec := &domain.TaskSpec{Name: "fail", Command: []string{"sh", "-c", "exit 3"}}

	err := shell.NewExecutor().Execute(context.Background(), spec, nil, &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, domain.ErrCommandFailed)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, 3, zErr.Metadata()["exit_code"])
}

func TestExecutor_UnknownCommand(t *testing.T) {
	spec := &domain.TaskSpec{Name: "x", Command: []string{"definitely-not-a-command-mark"}}

	err := shell.NewExecutor().Execute(context.Background(), spec, nil, &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, domain.ErrCommandFailed)
}

func TestExecutor_EmptyCommand(t *testing.T) {
	err := shell.NewExecutor().Execute(context.Background(), &domain.TaskSpec{Name: "w"}, nil, nil, nil)
	require.NoError(t, err)
}

func TestExecutor_Environment(t *testing.T) {
	var out bytes.Buffer
	spec := &domain.TaskSpec{
		Name:    "env",
		Command: []string{"sh", "-c", `echo "[$SECRET][$MARK_TASK][$EPOCHS]"`},
		Env:     map[string]string{"EPOCHS": "3"},
	}
	exec := shell.NewExecutor().WithEnviron(func() []string {
		return []string{"PATH=" + os.Getenv("PATH"), "SECRET=hunter2"}
	})

	err := exec.Execute(context.Background(), spec, []string{"MARK_TASK=env"}, &out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[][env][3]")
}

func TestExecutor_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	spec := &domain.TaskSpec{
		Name:       "touch",
		Command:    []string{"sh", "-c", "echo done > produced.txt"},
		WorkingDir: dir,
	}

	require.NoError(t, shell.NewExecutor().Execute(context.Background(), spec, nil, &bytes.Buffer{}, nil))
	data, err := os.ReadFile(filepath.Join(dir, "produced.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", strings.TrimSpace(string(data)))
}

func TestExecutor_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	spec := &domain.TaskSpec{Name: "slow", Command: []string{"sleep", "10"}}
	start := time.Now()
	err := shell.NewExecutor().Execute(ctx, spec, nil, &bytes.Buffer{}, nil)

	require.ErrorIs(t, err, domain.ErrCommandFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolveEnvironment(t *testing.T) {
	env := shell.ResolveEnvironment(
		[]string{"PATH=/bin", "HOME=/home/me", "AWS_SECRET=x", "malformed"},
		[]string{"MARK_TASK=train", "PATH=/engine"},
		map[string]string{"PATH": "/task", "EPOCHS": "3"},
	)

	assert.Equal(t, []string{"EPOCHS=3", "HOME=/home/me", "MARK_TASK=train", "PATH=/task"}, env)
}
