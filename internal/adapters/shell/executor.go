// Package shell runs task commands under a pseudo-terminal.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/mark/internal/core/domain"
)

// Executor implements ports.Executor using os/exec and a pty, so tools
// keep their interactive formatting.
type Executor struct {
	environ func() []string
}

// NewExecutor creates an Executor inheriting the allow-listed parts of
// the process environment.
func NewExecutor() *Executor {
	return &Executor{environ: os.Environ}
}

// Execute runs spec.Command and waits for it. The pty merges stderr into
// stdout, so stderr is unused.
func (e *Executor) Execute(
	ctx context.Context,
	spec *domain.TaskSpec,
	env []string,
	stdout, _ io.Writer,
) error {
	if len(spec.Command) == 0 {
		return nil
	}

	name := spec.Command[0]
	cmdEnv := resolveEnvironment(e.environ(), env, spec.Env)

	executable := name
	if !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, spec.Command[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Dir = spec.WorkingDir
	cmd.Env = cmdEnv

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrCommandFailed, err), "command", name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(stdout, ptmx)
	}()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// Background children may keep the pty open after the kill.
		_ = ptmx.Close()
	}
	<-ioDone
	_ = ptmx.Close()

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return domain.Annotate(domain.Wrap(domain.ErrCommandFailed, waitErr), "exit_code", exitCode)
	}
	return nil
}

// allowListedEnvVars are the system variables a task inherits. Anything
// else must be declared in the task's env.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"LANG":   {},
	"TMPDIR": {},
}

// resolveEnvironment merges, in increasing priority, the allow-listed
// system environment, the engine's variables and the task's own env.
func resolveEnvironment(sysEnv, engineEnv []string, taskEnv map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	for _, entry := range engineEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range taskEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// lookPath searches the PATH of env rather than of the current process.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func isExecutable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}
	m := d.Mode()
	return !m.IsDir() && m&0o111 != 0
}
