package shell

// ResolveEnvironment exposes the environment merge for tests.
var ResolveEnvironment = resolveEnvironment

// WithEnviron replaces the process environment the executor inherits.
func (e *Executor) WithEnviron(environ func() []string) *Executor {
	e.environ = environ
	return e
}
