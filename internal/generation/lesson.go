package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lucas/course-foundry/internal/prompts"
	"github.com/lucas/course-foundry/internal/schemas"
	"github.com/lucas/course-foundry/internal/types"
)

// GenerateLessonContent expands one lesson stub into full content. The prompt
// carries the whole lexical context chain plus the persona so independently
// generated lessons keep a consistent voice.
func (g *Generator) GenerateLessonContent(ctx context.Context, lessonTitle, moduleTitle, courseTitle string, persona types.Persona, strict bool) (*types.LessonContent, error) {
	prompt := prompts.BuildLessonPrompt(lessonTitle, moduleTitle, courseTitle, persona, prompts.LessonCounts{
		Examples:    g.cfg.ExamplesPerLesson,
		Analogies:   g.cfg.AnalogiesPerLesson,
		QuizItems:   g.cfg.QuizItemsPerLesson,
		QuizOptions: g.cfg.QuizOptionCount,
	})

	raw, err := g.completeStage(ctx, schemas.StageLesson, prompt, g.cfg.LessonTier, strict)
	if err != nil {
		return nil, err
	}

	var content types.LessonContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, &ValidationError{Stage: schemas.StageLesson, Reason: "failed to decode lesson content", Cause: err}
	}

	if len(content.Examples) != g.cfg.ExamplesPerLesson {
		return nil, &ValidationError{
			Stage:  schemas.StageLesson,
			Reason: fmt.Sprintf("expected %d examples, got %d", g.cfg.ExamplesPerLesson, len(content.Examples)),
		}
	}
	if len(content.Analogies) != g.cfg.AnalogiesPerLesson {
		return nil, &ValidationError{
			Stage:  schemas.StageLesson,
			Reason: fmt.Sprintf("expected %d analogies, got %d", g.cfg.AnalogiesPerLesson, len(content.Analogies)),
		}
	}
	if err := checkQuizItems(schemas.StageLesson, "quiz", content.Quiz, g.cfg.QuizItemsPerLesson, g.cfg.QuizOptionCount); err != nil {
		return nil, err
	}

	// Optional collections come back as empty slices, never nil
	if content.Images == nil {
		content.Images = []types.ImageSpec{}
	}
	if content.Graphs == nil {
		content.Graphs = []types.GraphSpec{}
	}

	return &content, nil
}

// checkQuizItems enforces the exact item count, the option count, and that
// every correct index is inside [0, optionCount). An out-of-range index fails
// the stage; it is never clamped into validity.
func checkQuizItems(stage, field string, items []types.QuizItem, wantCount, optionCount int) error {
	if len(items) != wantCount {
		return &ValidationError{
			Stage:  stage,
			Reason: fmt.Sprintf("expected %d %s items, got %d", wantCount, field, len(items)),
		}
	}

	for i, item := range items {
		if len(item.Options) != optionCount {
			return &ValidationError{
				Stage:  stage,
				Reason: fmt.Sprintf("%s[%d] has %d options, expected %d", field, i, len(item.Options), optionCount),
			}
		}
		if item.Correct < 0 || item.Correct >= optionCount {
			return &ValidationError{
				Stage:  stage,
				Reason: fmt.Sprintf("%s[%d] correct index %d is out of range [0,%d)", field, i, item.Correct, optionCount),
			}
		}
	}

	return nil
}
