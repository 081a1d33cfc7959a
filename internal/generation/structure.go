package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lucas/course-foundry/internal/prompts"
	"github.com/lucas/course-foundry/internal/schemas"
	"github.com/lucas/course-foundry/internal/types"
)

// GenerateStructure produces the skeletal module/lesson tree for the topic.
// The configured caps are both embedded in the prompt and enforced on the
// response: an oversized structure is rejected, not truncated, so the
// document never silently diverges from what was asked for.
func (g *Generator) GenerateStructure(ctx context.Context, topic string, persona types.Persona, strict bool) (*types.CourseStructure, error) {
	prompt := prompts.BuildStructurePrompt(topic, persona, prompts.StructureLimits{
		MaxModules:          g.cfg.MaxModules,
		MaxLessonsPerModule: g.cfg.MaxLessonsPerModule,
		MaxTotalLessons:     g.cfg.MaxTotalLessons,
	})

	raw, err := g.completeStage(ctx, schemas.StageStructure, prompt, g.cfg.StructureTier, strict)
	if err != nil {
		return nil, err
	}

	var structure types.CourseStructure
	if err := json.Unmarshal(raw, &structure); err != nil {
		return nil, &ValidationError{Stage: schemas.StageStructure, Reason: "failed to decode structure", Cause: err}
	}

	if err := g.checkStructureBounds(&structure); err != nil {
		return nil, err
	}

	return &structure, nil
}

func (g *Generator) checkStructureBounds(structure *types.CourseStructure) error {
	if len(structure.Modules) > g.cfg.MaxModules {
		return &ValidationError{
			Stage:  schemas.StageStructure,
			Reason: fmt.Sprintf("%d modules exceeds the cap of %d", len(structure.Modules), g.cfg.MaxModules),
		}
	}

	for i, module := range structure.Modules {
		if len(module.Lessons) > g.cfg.MaxLessonsPerModule {
			return &ValidationError{
				Stage:  schemas.StageStructure,
				Reason: fmt.Sprintf("module %d has %d lessons, exceeding the cap of %d", i, len(module.Lessons), g.cfg.MaxLessonsPerModule),
			}
		}
	}

	if total := structure.LessonCount(); total > g.cfg.MaxTotalLessons {
		return &ValidationError{
			Stage:  schemas.StageStructure,
			Reason: fmt.Sprintf("%d total lessons exceeds the cap of %d", total, g.cfg.MaxTotalLessons),
		}
	}

	return nil
}
