package generation

import (
	"context"
	"encoding/json"

	"github.com/lucas/course-foundry/internal/llm"
	"github.com/lucas/course-foundry/internal/prompts"
	"github.com/lucas/course-foundry/internal/schemas"
)

// Config holds the structural bounds and item counts the executors enforce.
// The same values are embedded into the prompts, so the model is asked for
// exactly what validation later requires.
type Config struct {
	MaxModules          int
	MaxLessonsPerModule int
	MaxTotalLessons     int

	ExamplesPerLesson    int
	AnalogiesPerLesson   int
	QuizItemsPerLesson   int
	FinalAssessmentItems int
	QuizOptionCount      int

	PersonaTier   llm.ModelTier
	StructureTier llm.ModelTier
	LessonTier    llm.ModelTier
	ExtrasTier    llm.ModelTier
}

// DefaultConfig returns the standard course shape: up to 3x3 modules/lessons
// capped at 7 lessons, 2 examples/analogies/quiz items per lesson, a 5-item
// final assessment and 4 options per question.
func DefaultConfig() Config {
	return Config{
		MaxModules:           3,
		MaxLessonsPerModule:  3,
		MaxTotalLessons:      7,
		ExamplesPerLesson:    2,
		AnalogiesPerLesson:   2,
		QuizItemsPerLesson:   2,
		FinalAssessmentItems: 5,
		QuizOptionCount:      4,
		PersonaTier:          llm.TierLite,
		StructureTier:        llm.TierStandard,
		LessonTier:           llm.TierAdvanced,
		ExtrasTier:           llm.TierStandard,
	}
}

// Generator runs the four pipeline stages against an injected model client.
type Generator struct {
	client llm.Client
	cfg    Config
}

// NewGenerator creates a Generator. The client is injected so tests and
// callers control credentials and transport; the Generator never constructs
// its own.
func NewGenerator(client llm.Client, cfg Config) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Config returns the generator's effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// completeStage runs one prompt through the model and schema-checks the
// response. strict appends the re-prompt suffix used after a shape failure.
func (g *Generator) completeStage(ctx context.Context, stage string, prompt prompts.Prompt, tier llm.ModelTier, strict bool) (json.RawMessage, error) {
	if strict {
		prompt = prompt.WithStrictRetry()
	}

	raw, err := g.client.CompleteJSON(ctx, prompt.System, prompt.User, tier)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateStage(stage, raw); err != nil {
		return nil, &ValidationError{Stage: stage, Reason: "response shape mismatch", Cause: err}
	}

	return raw, nil
}
