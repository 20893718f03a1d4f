package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

type mockStep struct {
	name  string
	stage Stage
	deps  Dependencies
	apply func(p *page.Page) error
}

func (m mockStep) Name() string               { return m.name }
func (m mockStep) Stage() Stage               { return m.stage }
func (m mockStep) Dependencies() Dependencies { return m.deps }
func (m mockStep) Apply(_ context.Context, p *page.Page, _ *Env) error {
	if m.apply != nil {
		return m.apply(p)
	}
	return nil
}

func TestFromConfig_DefaultOrder(t *testing.T) {
	pl, err := FromConfig(defaultSteps(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		NameFootnotes,
		NameFootnotesCleanup,
		NameChapterIndex,
		NamePageTOC,
		NameSidebarTOC,
		NameNavigation,
	}, pl.Names())
}

func TestFromConfig_AllSteps(t *testing.T) {
	cfg := defaultSteps()
	on := true
	cfg.EditLink.Enabled = &on
	cfg.CodeCheck.Enabled = &on
	cfg.CodeCheck.Command = []string{"check", "{file}"}
	cfg.Highlight.Enabled = &on
	cfg.Highlight.Command = []string{"hl"}

	pl, err := FromConfig(cfg, Options{
		EditBase: "https://github.com/acme/book/edit/main",
		Extra:    []Step{NewLiveReload("/livereload.js")},
	})
	require.NoError(t, err)

	names := pl.Names()
	pos := func(n string) int {
		for i, x := range names {
			if x == n {
				return i
			}
		}
		t.Fatalf("step %s missing from %v", n, names)
		return -1
	}
	assert.Less(t, pos(NameCodeCheck), pos(NameHighlight))
	assert.Less(t, pos(NameFootnotes), pos(NameFootnotesCleanup))
	assert.Less(t, pos(NameSidebarTOC), pos(NameNavigation))
	assert.Less(t, pos(NameChapterIndex), pos(NameNavigation))
	assert.Equal(t, NameLiveReload, names[len(names)-1])
}

func TestFromConfig_EditLinkWithoutBase(t *testing.T) {
	cfg := defaultSteps()
	on := true
	cfg.EditLink.Enabled = &on
	_, err := FromConfig(cfg, Options{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestBuildPipeline_Errors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
	}{
		{"cycle", []Step{
			mockStep{name: "a", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"b"}}},
			mockStep{name: "b", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"a"}}},
		}},
		{"unknown dependency", []Step{
			mockStep{name: "a", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"ghost"}}},
		}},
		{"duplicate", []Step{
			mockStep{name: "a", stage: StageContent},
			mockStep{name: "a", stage: StageStructure},
		}},
		{"invalid stage", []Step{
			mockStep{name: "a", stage: "later"},
		}},
		{"contradicts stage order", []Step{
			mockStep{name: "a", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"b"}}},
			mockStep{name: "b", stage: StageNavigation},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPipeline(tt.steps)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
		})
	}
}

func TestBuildPipeline_DisabledKnownDependencyIgnored(t *testing.T) {
	nav, err := NewNavigation(defaultSteps().Navigation)
	require.NoError(t, err)
	pl, err := BuildPipeline([]Step{nav})
	require.NoError(t, err)
	assert.Equal(t, []string{NameNavigation}, pl.Names())
}

func TestBuildPipeline_WithinStageOrder(t *testing.T) {
	pl, err := BuildPipeline([]Step{
		mockStep{name: "third", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"second"}}},
		mockStep{name: "first", stage: StageContent},
		mockStep{name: "second", stage: StageContent, deps: Dependencies{MustRunAfter: []string{"first"}}},
		mockStep{name: "zeta", stage: StageContent, deps: Dependencies{MustRunBefore: []string{"first"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "first", "second", "third"}, pl.Names())
}

func TestPipelineRun_ToolFailuresAreWarningsUnlessStrict(t *testing.T) {
	toolErr := ferrors.ExternalToolError("validator failed").Build()
	var ran []string
	steps := []Step{
		mockStep{name: "check", stage: StageContent, apply: func(*page.Page) error {
			ran = append(ran, "check")
			return errors.Join(toolErr, toolErr)
		}},
		mockStep{name: "after", stage: StageStructure, apply: func(*page.Page) error {
			ran = append(ran, "after")
			return nil
		}},
	}
	pl, err := BuildPipeline(steps)
	require.NoError(t, err)

	warnings, err := pl.Run(context.Background(), testPage(t, "x", ""), &Env{})
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	assert.Equal(t, []string{"check", "after"}, ran)

	ran = nil
	_, err = pl.Run(context.Background(), testPage(t, "x", ""), &Env{Strict: true})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryExternalTool))
	assert.Equal(t, []string{"check"}, ran)
}

func TestPipelineRun_ConfigErrorStopsPage(t *testing.T) {
	pl, err := BuildPipeline([]Step{
		mockStep{name: "fail", stage: StageContent, apply: func(p *page.Page) error {
			_, err := p.Require("#missing", "fail")
			return err
		}},
	})
	require.NoError(t, err)

	_, err = pl.Run(context.Background(), testPage(t, "x", ""), &Env{})
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryConfig, ce.Category())
	step, _ := ce.Context().GetString("step")
	assert.Equal(t, "fail", step)
}

type resultRecorder struct {
	metrics.NoopRecorder
	results map[string]metrics.ResultLabel
}

func (r *resultRecorder) IncStepResult(step string, result metrics.ResultLabel) {
	r.results[step] = result
}

func TestPipelineRun_RecordsSkippedSteps(t *testing.T) {
	rec := &resultRecorder{results: map[string]metrics.ResultLabel{}}
	pl, err := BuildPipeline([]Step{
		mockStep{name: "ok", stage: StageContent},
		mockStep{name: "boom", stage: StageStructure, apply: func(*page.Page) error { return errors.New("boom") }},
		mockStep{name: "never", stage: StageNavigation},
	})
	require.NoError(t, err)

	_, err = pl.WithRecorder(rec).Run(context.Background(), testPage(t, "x", ""), &Env{})
	require.Error(t, err)
	assert.Equal(t, map[string]metrics.ResultLabel{
		"ok":    metrics.ResultSuccess,
		"boom":  metrics.ResultFatal,
		"never": metrics.ResultSkipped,
	}, rec.results)
}

func TestPipelineRun_PlainErrorBecomesBuildError(t *testing.T) {
	pl, err := BuildPipeline([]Step{
		mockStep{name: "boom", stage: StageContent, apply: func(*page.Page) error { return errors.New("boom") }},
	})
	require.NoError(t, err)

	_, err = pl.Run(context.Background(), testPage(t, "x", ""), &Env{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	assert.Contains(t, err.Error(), "boom")
}

func TestPipelineRun_Canceled(t *testing.T) {
	pl, err := BuildPipeline([]Step{mockStep{name: "a", stage: StageContent}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pl.Run(ctx, testPage(t, "x", ""), &Env{})
	assert.ErrorIs(t, err, context.Canceled)
}
