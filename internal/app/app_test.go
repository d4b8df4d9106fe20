package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mark/internal/adapters/detector"
	"go.trai.ch/mark/internal/adapters/markers"
	"go.trai.ch/mark/internal/app"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
	"go.trai.ch/mark/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	app      *app.App
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	watcher  *mocks.MockWatcher
	pipeline *domain.Pipeline
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	f := &fixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		stdout:   new(bytes.Buffer),
		stderr:   new(bytes.Buffer),
		pipeline: &domain.Pipeline{
			Root:           root,
			DefaultTargets: []string{"train"},
			Parallelism:    1,
			MetricsFile:    domain.DefaultMetricsPath(root),
			Tasks: []domain.TaskSpec{
				{Name: "models", Command: []string{"dbt", "run"}, Marker: "models_run.txt"},
				{Name: "train", Command: []string{"python", "train.py"}, Dependencies: []string{"models"}},
				{Name: "pipeline", Dependencies: []string{"train"}},
			},
		},
	}

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	f.loader.EXPECT().Load(gomock.Any()).Return(f.pipeline, nil).AnyTimes()
	f.app = app.New(f.loader, f.executor, log, markers.NewFactory(), nil, f.watcher).
		WithOutput(f.stdout, f.stderr)
	return f
}

func (f *fixture) expectRuns(names ...string) {
	for _, name := range names {
		f.executor.EXPECT().
			Execute(gomock.Any(), specNamed(name), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, spec *domain.TaskSpec, _ []string, stdout, _ io.Writer) error {
				_, err := io.WriteString(stdout, "running "+spec.Name+"\n")
				return err
			})
	}
}

type specNamed string

func (n specNamed) Matches(x any) bool {
	spec, ok := x.(*domain.TaskSpec)
	return ok && spec.Name == string(n)
}

func (n specNamed) String() string { return "task spec " + string(n) }

var linearRun = app.RunOptions{OutputMode: detector.ModeLinear}

func TestRun_SecondInvocationSkipsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.expectRuns("models", "train")
	report, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)
	assert.Equal(t, []string{"models", "train"}, report.Ran)
	assert.True(t, report.Succeeded())
	assert.FileExists(t, filepath.Join(f.pipeline.Root, "models_run.txt"))
	assert.Contains(t, f.stdout.String(), "[models] running models")
	assert.Contains(t, f.stderr.String(), "[train] ✓ Completed")

	report, err = f.app.Run(ctx, []string{"train"}, linearRun)
	require.NoError(t, err)
	assert.Empty(t, report.Ran)
	assert.Equal(t, []string{"models", "train"}, report.Skipped)
	assert.Contains(t, f.stderr.String(), "[train] ↷ Skipped")
}

func TestRun_WrapperRunsDependencies(t *testing.T) {
	f := newFixture(t)

	f.expectRuns("models", "train")
	report, err := f.app.Run(context.Background(), []string{"pipeline"}, linearRun)
	require.NoError(t, err)
	assert.Equal(t, []string{"models", "train", "pipeline"}, report.Order)
	assert.Equal(t, domain.StatusDone, report.Status("pipeline"))

	states, err := f.app.Status(context.Background(), []string{"pipeline"}, "")
	require.NoError(t, err)
	assert.False(t, states[2].WouldRun)

	report, err = f.app.Run(context.Background(), []string{"pipeline"}, linearRun)
	require.NoError(t, err)
	assert.Empty(t, report.Ran)
	assert.Equal(t, domain.StatusSkipped, report.Status("pipeline"))
}

func TestRun_FailureStopsDependents(t *testing.T) {
	f := newFixture(t)

	f.executor.EXPECT().
		Execute(gomock.Any(), specNamed("models"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("exit status 2"))

	report, err := f.app.Run(context.Background(), nil, linearRun)
	require.ErrorIs(t, err, domain.ErrPipelineFailed)
	require.ErrorIs(t, err, domain.ErrTaskFailed)
	assert.Equal(t, "models", report.FailedTask())
	assert.Equal(t, domain.StatusPending, report.Status("train"))
	assert.NoFileExists(t, filepath.Join(f.pipeline.Root, "models_run.txt"))
	assert.Contains(t, f.stderr.String(), "[models] ✗ Failed")
}

func TestRun_ForceRerunsRootOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.expectRuns("models", "train")
	_, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)

	f.expectRuns("train")
	opts := linearRun
	opts.Force = true
	report, err := f.app.Run(ctx, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, report.Ran)
	assert.Equal(t, []string{"models"}, report.Skipped)
}

func TestRun_Errors(t *testing.T) {
	t.Run("no targets", func(t *testing.T) {
		f := newFixture(t)
		f.pipeline.DefaultTargets = nil
		_, err := f.app.Run(context.Background(), nil, linearRun)
		require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Run(context.Background(), []string{"ghost"}, linearRun)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)
		a := app.New(loader, nil, nil, markers.NewFactory(), nil, nil)
		_, err := a.Run(context.Background(), nil, linearRun)
		require.ErrorIs(t, err, domain.ErrConfigNotFound)
	})
}

func TestRun_TUIHeadless(t *testing.T) {
	f := newFixture(t)
	f.app.WithTeaOptions(
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)

	f.expectRuns("models", "train")
	report, err := f.app.Run(context.Background(), nil, app.RunOptions{OutputMode: detector.ModeTUI})
	require.NoError(t, err)
	assert.Len(t, report.Ran, 2)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	states, err := f.app.Status(ctx, []string{"pipeline"}, "")
	require.NoError(t, err)
	require.Len(t, states, 3)
	for _, s := range states {
		assert.False(t, s.Exists, s.Task)
		assert.True(t, s.WouldRun, s.Task)
	}
	assert.Equal(t, filepath.Join(f.pipeline.Root, "models_run.txt"), states[0].Target)
	assert.NoDirExists(t, domain.DefaultStatePath(f.pipeline.Root), "status has no side effects")

	f.expectRuns("models")
	_, err = f.app.Run(ctx, []string{"models"}, linearRun)
	require.NoError(t, err)

	states, err = f.app.Status(ctx, []string{"pipeline"}, "")
	require.NoError(t, err)
	assert.Equal(t, "models", states[0].Task)
	assert.True(t, states[0].Exists)
	assert.False(t, states[0].WouldRun)
	assert.WithinDuration(t, time.Now(), states[0].MaterializedAt, time.Minute)
	assert.True(t, states[1].WouldRun)
	assert.True(t, states[1].MaterializedAt.IsZero())
	assert.Equal(t, "pipeline", states[2].Task)
	assert.True(t, states[2].WouldRun, "a wrapper runs after a dependency that runs")
}

func TestStatus_HandWrittenMarker(t *testing.T) {
	f := newFixture(t)
	marker := filepath.Join(f.pipeline.Root, "models_run.txt")
	require.NoError(t, os.WriteFile(marker, []byte("done\n"), 0o600))

	states, err := f.app.Status(context.Background(), []string{"models"}, "")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states[0].Exists)
	assert.True(t, states[0].MaterializedAt.IsZero())
}

func TestClean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.expectRuns("models", "train")
	_, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)

	cleaned, err := f.app.Clean(ctx, []string{"train"}, app.CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, cleaned)

	f.expectRuns("train")
	report, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, report.Ran)

	store, err := markers.NewStore(f.pipeline.Root, 0)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, store.Path("retired"), domain.NewMarker("retired", time.Now())))

	cleaned, err = f.app.Clean(ctx, nil, app.CleanOptions{All: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"models", "train", "retired"}, cleaned, "wrappers have nothing to clean")
	assert.NoFileExists(t, store.Path("retired"))
	assert.NoFileExists(t, filepath.Join(f.pipeline.Root, "models_run.txt"))

	_, err = f.app.Clean(ctx, []string{"ghost"}, app.CleanOptions{})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.app.Clean(ctx, nil, app.CleanOptions{})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestWatch_RerunsOnChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.pipeline.Root

	f.expectRuns("models", "train")
	f.watcher.EXPECT().Start(gomock.Any(), root).Return(nil)
	f.watcher.EXPECT().Stop().Return(nil)
	f.watcher.EXPECT().Events().Return(iter.Seq[[]ports.WatchEvent](func(yield func([]ports.WatchEvent) bool) {
		// A change to a target the pipeline wrote itself is ignored.
		if !yield([]ports.WatchEvent{{Path: filepath.Join(root, "models_run.txt"), Operation: ports.OpWrite}}) {
			return
		}
		yield([]ports.WatchEvent{{Path: filepath.Join(root, "models", "orders.sql"), Operation: ports.OpWrite}})
	}))

	require.NoError(t, f.app.Watch(ctx, nil, app.RunOptions{}))
	assert.Equal(t, 2, strings.Count(f.stderr.String(), "Planning 2 task(s)"))
	assert.Equal(t, 1, strings.Count(f.stderr.String(), "[train] ↷ Skipped"))
}

func TestClean_OutputFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.pipeline.Tasks = []domain.TaskSpec{
		{Name: "train", Command: []string{"python", "train.py"}, Output: "model.pt"},
	}
	model := filepath.Join(f.pipeline.Root, "model.pt")

	f.executor.EXPECT().
		Execute(gomock.Any(), specNamed("train"), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *domain.TaskSpec, []string, io.Writer, io.Writer) error {
			return os.WriteFile(model, []byte("weights"), 0o600)
		}).Times(2)

	_, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)

	cleaned, err := f.app.Clean(ctx, []string{"train"}, app.CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, cleaned)
	assert.FileExists(t, model)

	report, err := f.app.Run(ctx, nil, linearRun)
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, report.Ran, "a kept file without its marker is rebuilt")

	_, err = f.app.Clean(ctx, []string{"train"}, app.CleanOptions{Outputs: true})
	require.NoError(t, err)
	assert.NoFileExists(t, model)
}
