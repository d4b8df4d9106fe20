package domain_test

import (
	"context"
	"io"

	"go.trai.ch/mark/internal/core/domain"
)

type stubTarget struct{ key string }

func (t stubTarget) Key() string { return t.key }

func (t stubTarget) Exists(context.Context) (bool, error) { return false, nil }

func (t stubTarget) Materialize(context.Context) error { return nil }

type stubTask struct {
	id   string
	deps []string
}

func task(id string, deps ...string) *stubTask {
	return &stubTask{id: id, deps: deps}
}

func (t *stubTask) ID() string { return t.id }

func (t *stubTask) Dependencies() []string { return t.deps }

func (t *stubTask) Output() domain.Target { return stubTarget{key: t.id} }

func (t *stubTask) Run(context.Context, io.Writer) error { return nil }

func buildGraph(tasks ...*stubTask) (*domain.Graph, error) {
	g := domain.NewGraph()
	for _, t := range tasks {
		if err := g.AddTask(t); err != nil {
			return nil, err
		}
	}
	return g, g.Validate()
}
