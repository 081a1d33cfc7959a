package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/lucas/course-foundry/internal/generation"
	"github.com/lucas/course-foundry/internal/llm"
	"github.com/lucas/course-foundry/internal/observability"
	"github.com/lucas/course-foundry/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution.
// Module and Lesson are zero-based indexes, -1 for course-level stages.
type ProgressEvent struct {
	Stage   State  `json:"stage"`
	Message string `json:"message"`
	Module  int    `json:"module"`
	Lesson  int    `json:"lesson"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Lesson expansion
// runs concurrently, so the callback may be invoked from multiple goroutines
// at once and must be safe for concurrent use.
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for running the pipeline.
type Options struct {
	// Generation carries the structural bounds and per-lesson item counts
	// the stage executors enforce.
	Generation generation.Config

	// StageAttempts caps how many times a single stage call may run,
	// counting the first attempt, transient retries and the one stricter
	// re-prompt after a shape failure.
	StageAttempts uint

	// RetryBaseDelay is the initial backoff delay between attempts.
	RetryBaseDelay time.Duration

	// LessonConcurrency bounds how many lessons are expanded at once.
	LessonConcurrency int

	Verbose    bool
	OnProgress ProgressCallback
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		Generation:        generation.DefaultConfig(),
		StageAttempts:     3,
		RetryBaseDelay:    500 * time.Millisecond,
		LessonConcurrency: 3,
	}
}

// Pipeline drives one course generation from learner profile to assembled
// document. A Pipeline is single-use: Run may be called once.
type Pipeline struct {
	gen  *generation.Generator
	opts Options

	mu    sync.Mutex
	state State
}

// New creates a Pipeline around the given model client.
func New(client llm.Client, opts Options) *Pipeline {
	if opts.StageAttempts == 0 {
		opts.StageAttempts = 3
	}
	if opts.LessonConcurrency <= 0 {
		opts.LessonConcurrency = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Pipeline{
		gen:   generation.NewGenerator(client, opts.Generation),
		opts:  opts,
		state: StateInit,
	}
}

// State returns the pipeline's current phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// fail moves the pipeline to StateFailed and passes the error through.
func (p *Pipeline) fail(err error) error {
	p.setState(StateFailed)
	return err
}

func (p *Pipeline) emit(stage State, message string, module, lesson int, content any) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Message: message,
			Module:  module,
			Lesson:  lesson,
			Content: content,
		})
	}
}

// runStage executes one stage call under the retry policy: transient errors
// retry with backoff up to StageAttempts, a shape failure (malformed response
// or stage validation) earns exactly one stricter re-prompt, and fatal errors
// escalate immediately.
func (p *Pipeline) runStage(ctx context.Context, fn func(ctx context.Context, strict bool) error) error {
	strict := false
	return retry.Do(
		func() error { return fn(ctx, strict) },
		retry.Context(ctx),
		retry.Attempts(p.opts.StageAttempts),
		retry.Delay(p.opts.RetryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if llm.IsFatal(err) {
				return false
			}
			if llm.IsTransient(err) {
				return true
			}
			if (llm.IsMalformed(err) || generation.IsValidation(err)) && !strict {
				strict = true
				return true
			}
			return false
		}),
	)
}

// Run executes the full generation: persona, structure, bounded-concurrency
// lesson expansion, extras, assembly. On any stage failure the run moves to
// StateFailed and returns no document; there are no partial courses.
func (p *Pipeline) Run(ctx context.Context, profile types.LearnerProfile) (*types.CourseDocument, error) {
	p.mu.Lock()
	if p.state != StateInit {
		state := p.state
		p.mu.Unlock()
		return nil, fmt.Errorf("pipeline already run (state %s)", state)
	}
	p.mu.Unlock()

	printer := observability.NewPrinter(os.Stdout)

	// Reject bad input before any model call.
	profile.Topic = strings.TrimSpace(profile.Topic)
	if err := profile.Validate(); err != nil {
		return nil, p.fail(&InputValidationError{Cause: err})
	}
	if profile.Topic == "" {
		return nil, p.fail(&InputValidationError{Cause: fmt.Errorf("topic must not be empty")})
	}

	// Stage 1: persona
	p.setState(StatePersona)
	if p.opts.Verbose {
		fmt.Printf("Stage 1/4: Deriving learner persona for %q...\n", profile.Topic)
	}
	var persona types.Persona
	err := p.runStage(ctx, func(ctx context.Context, strict bool) error {
		got, err := p.gen.GeneratePersona(ctx, profile, strict)
		if err != nil {
			return err
		}
		persona = got
		return nil
	})
	if err != nil {
		return nil, p.fail(&PipelineError{Stage: StatePersona, Module: -1, Lesson: -1, Cause: err})
	}
	if p.opts.Verbose {
		printer.PrintPersona(persona)
	}
	p.emit(StatePersona, fmt.Sprintf("Derived persona: %s learner", persona.Complexity), -1, -1, persona)

	// Stage 2: structure
	if err := ctx.Err(); err != nil {
		return nil, p.fail(&PipelineError{Stage: StateStructure, Module: -1, Lesson: -1, Cause: err})
	}
	p.setState(StateStructure)
	if p.opts.Verbose {
		fmt.Printf("Stage 2/4: Generating course structure...\n")
	}
	var structure *types.CourseStructure
	err = p.runStage(ctx, func(ctx context.Context, strict bool) error {
		got, err := p.gen.GenerateStructure(ctx, profile.Topic, persona, strict)
		if err != nil {
			return err
		}
		structure = got
		return nil
	})
	if err != nil {
		return nil, p.fail(&PipelineError{Stage: StateStructure, Module: -1, Lesson: -1, Cause: err})
	}
	if p.opts.Verbose {
		printer.PrintStructure(structure)
	}
	p.emit(StateStructure, fmt.Sprintf("Structured %q: %d modules, %d lessons",
		structure.Title, len(structure.Modules), structure.LessonCount()), -1, -1, structure)

	// Stage 3: expand every lesson, bounded fan-out
	if err := ctx.Err(); err != nil {
		return nil, p.fail(&PipelineError{Stage: StateExpanding, Module: -1, Lesson: -1, Cause: err})
	}
	p.setState(StateExpanding)
	if p.opts.Verbose {
		fmt.Printf("Stage 3/4: Expanding %d lessons (concurrency %d)...\n",
			structure.LessonCount(), p.opts.LessonConcurrency)
	}

	modules, err := p.expandLessons(ctx, structure, persona)
	if err != nil {
		return nil, p.fail(err)
	}

	// Stage 4: extras
	if err := ctx.Err(); err != nil {
		return nil, p.fail(&PipelineError{Stage: StateExtras, Module: -1, Lesson: -1, Cause: err})
	}
	p.setState(StateExtras)
	if p.opts.Verbose {
		fmt.Printf("Stage 4/4: Generating project, glossary and final assessment...\n")
	}
	var extras *types.Extras
	err = p.runStage(ctx, func(ctx context.Context, strict bool) error {
		got, err := p.gen.GenerateExtras(ctx, structure.Title, persona, strict)
		if err != nil {
			return err
		}
		extras = got
		return nil
	})
	if err != nil {
		return nil, p.fail(&PipelineError{Stage: StateExtras, Module: -1, Lesson: -1, Cause: err})
	}
	p.emit(StateExtras, fmt.Sprintf("Generated extras with %d glossary terms", len(extras.Glossary)), -1, -1, nil)

	course := &types.CourseDocument{
		Title:           structure.Title,
		Description:     structure.Description,
		Modules:         modules,
		Project:         extras.Project,
		Glossary:        extras.Glossary,
		FinalAssessment: extras.FinalAssessment,
		UsageReport:     extras.UsageReport,
		Persona:         persona,
	}

	p.setState(StateAssembled)
	if p.opts.Verbose {
		printer.PrintCourseSummary(course)
	}
	p.emit(StateAssembled, fmt.Sprintf("Assembled course %q", course.Title), -1, -1, nil)

	return course, nil
}

// expandLessons generates content for every lesson stub. Lessons are
// independent given the frozen persona, so they run concurrently; each result
// lands in its own slot, keyed by (module, lesson) index, so document order
// always matches the structure regardless of completion order.
func (p *Pipeline) expandLessons(ctx context.Context, structure *types.CourseStructure, persona types.Persona) ([]types.Module, error) {
	modules := make([]types.Module, len(structure.Modules))
	for i, stub := range structure.Modules {
		modules[i] = types.Module{
			Title:   stub.Title,
			Lessons: make([]types.Lesson, len(stub.Lessons)),
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.LessonConcurrency)

	for mi, moduleStub := range structure.Modules {
		for li, lessonStub := range moduleStub.Lessons {
			mi, li := mi, li
			moduleTitle := moduleStub.Title
			lessonTitle := lessonStub.Title

			g.Go(func() error {
				var content *types.LessonContent
				err := p.runStage(gCtx, func(ctx context.Context, strict bool) error {
					got, err := p.gen.GenerateLessonContent(ctx, lessonTitle, moduleTitle, structure.Title, persona, strict)
					if err != nil {
						return err
					}
					content = got
					return nil
				})
				if err != nil {
					return &PipelineError{Stage: StateExpanding, Module: mi, Lesson: li, Cause: err}
				}

				modules[mi].Lessons[li] = types.Lesson{
					Title:         lessonTitle,
					LessonContent: *content,
				}
				p.emit(StateExpanding, fmt.Sprintf("Expanded lesson %q", lessonTitle), mi, li, nil)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		if _, ok := AsPipelineError(err); ok {
			return nil, err
		}
		return nil, &PipelineError{Stage: StateExpanding, Module: -1, Lesson: -1, Cause: err}
	}

	return modules, nil
}
