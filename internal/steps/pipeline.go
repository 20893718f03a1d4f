package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// Pipeline is an ordered list of steps.
type Pipeline struct {
	steps    []Step
	recorder metrics.Recorder
}

// BuildPipeline orders steps by stage, then by dependencies within a stage.
// Invalid stages, duplicate names, unknown dependencies and cycles are
// configuration errors.
func BuildPipeline(steps []Step) (*Pipeline, error) {
	ordered, err := order(steps)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid step pipeline").Fatal().Build()
	}
	return &Pipeline{steps: ordered, recorder: metrics.NoopRecorder{}}, nil
}

// WithRecorder sets the metrics recorder.
func (pl *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		pl.recorder = r
	}
	return pl
}

// Steps returns the steps in execution order.
func (pl *Pipeline) Steps() []Step {
	out := make([]Step, len(pl.steps))
	copy(out, pl.steps)
	return out
}

// Names returns the step names in execution order.
func (pl *Pipeline) Names() []string {
	names := make([]string, len(pl.steps))
	for i, s := range pl.steps {
		names[i] = s.Name()
	}
	return names
}

// Run applies every step to p in order. External tool failures are returned
// as warnings unless env.Strict is set; any other error stops the page.
func (pl *Pipeline) Run(ctx context.Context, p *page.Page, env *Env) (warnings []error, err error) {
	log := env.logger()
	for i, s := range pl.steps {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}

		start := time.Now()
		stepErr := s.Apply(ctx, p, env)
		pl.recorder.ObserveStepDuration(s.Name(), time.Since(start))

		if stepErr == nil {
			pl.recorder.IncStepResult(s.Name(), metrics.ResultSuccess)
			continue
		}

		if !env.Strict && isToolFailure(stepErr) {
			pl.recorder.IncStepResult(s.Name(), metrics.ResultWarning)
			for _, w := range flatten(stepErr) {
				log.Warn("External tool reported a problem",
					logfields.Page(p.SourcePath),
					logfields.Step(s.Name()),
					logfields.Error(w))
				warnings = append(warnings, w)
			}
			continue
		}

		pl.recorder.IncStepResult(s.Name(), metrics.ResultFatal)
		for _, rest := range pl.steps[i+1:] {
			pl.recorder.IncStepResult(rest.Name(), metrics.ResultSkipped)
		}
		return warnings, annotate(stepErr, p, s.Name())
	}
	return warnings, nil
}

// isToolFailure reports whether every error in err is an external tool error.
func isToolFailure(err error) bool {
	for _, e := range flatten(err) {
		if !ferrors.HasCategory(e, ferrors.CategoryExternalTool) {
			return false
		}
	}
	return true
}

func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func annotate(err error, p *page.Page, step string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if ce, ok := ferrors.AsClassified(err); ok {
		if len(flatten(err)) > 1 {
			return err
		}
		if _, has := ce.Context().Get(ferrors.ContextStep); !has {
			ce = ce.WithContext(ferrors.ContextStep, step)
		}
		if _, has := ce.Context().Get(ferrors.ContextPage); !has {
			ce = ce.WithContext(ferrors.ContextPage, p.SourcePath)
		}
		return ce
	}
	return ferrors.WrapError(err, ferrors.CategoryBuild, "page step failed").
		WithPage(p.SourcePath).
		WithStep(step).
		Build()
}

func order(steps []Step) ([]Step, error) {
	names := make(map[string]bool, len(steps))
	for _, s := range steps {
		if StageIndex(s.Stage()) < 0 {
			return nil, fmt.Errorf("step %q has invalid stage %q", s.Name(), s.Stage())
		}
		if names[s.Name()] {
			return nil, fmt.Errorf("duplicate step name: %q", s.Name())
		}
		names[s.Name()] = true
	}
	for _, s := range steps {
		deps := s.Dependencies()
		for _, d := range append(append([]string{}, deps.MustRunAfter...), deps.MustRunBefore...) {
			if !names[d] && !knownSteps[d] {
				return nil, fmt.Errorf("step %q references unknown step %q", s.Name(), d)
			}
		}
	}

	byStage := make(map[Stage][]Step)
	for _, s := range steps {
		byStage[s.Stage()] = append(byStage[s.Stage()], s)
	}

	result := make([]Step, 0, len(steps))
	for _, stage := range StageOrder {
		sorted, err := topologicalSort(byStage[stage])
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
		result = append(result, sorted...)
	}
	if err := checkCrossStage(result); err != nil {
		return nil, err
	}
	return result, nil
}

// topologicalSort orders steps of one stage with Kahn's algorithm. Ties are
// broken by name so the order is deterministic.
func topologicalSort(steps []Step) ([]Step, error) {
	if len(steps) == 0 {
		return nil, nil
	}

	byName := make(map[string]Step, len(steps))
	for _, s := range steps {
		byName[s.Name()] = s
	}

	graph := make(map[string][]string, len(steps))
	inDegree := make(map[string]int, len(steps))
	for _, s := range steps {
		inDegree[s.Name()] += 0
		deps := s.Dependencies()
		// Dependencies outside this stage are enforced by stage order.
		for _, dep := range deps.MustRunAfter {
			if _, ok := byName[dep]; ok {
				graph[dep] = append(graph[dep], s.Name())
				inDegree[s.Name()]++
			}
		}
		for _, after := range deps.MustRunBefore {
			if _, ok := byName[after]; ok {
				graph[s.Name()] = append(graph[s.Name()], after)
				inDegree[after]++
			}
		}
	}

	var queue []string
	for name, d := range inDegree {
		if d == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]Step, 0, len(steps))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, byName[current])

		next := graph[current]
		sort.Strings(next)
		for _, n := range next {
			inDegree[n]--
			if inDegree[n] == 0 {
				queue = append(queue, n)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(steps) {
		var cyclic []string
		for name, d := range inDegree {
			if d > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("circular dependency detected involving steps: %v", cyclic)
	}
	return result, nil
}

// checkCrossStage rejects dependencies that stage order contradicts, such as
// a content step declaring it must run after a navigation step.
func checkCrossStage(ordered []Step) error {
	pos := make(map[string]int, len(ordered))
	for i, s := range ordered {
		pos[s.Name()] = i
	}
	for i, s := range ordered {
		deps := s.Dependencies()
		for _, d := range deps.MustRunAfter {
			if j, ok := pos[d]; ok && j > i {
				return fmt.Errorf("step %q (stage %s) must run after %q (stage %s), which runs later",
					s.Name(), s.Stage(), d, ordered[j].Stage())
			}
		}
		for _, d := range deps.MustRunBefore {
			if j, ok := pos[d]; ok && j < i {
				return fmt.Errorf("step %q (stage %s) must run before %q (stage %s), which runs earlier",
					s.Name(), s.Stage(), d, ordered[j].Stage())
			}
		}
	}
	return nil
}
