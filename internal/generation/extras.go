package generation

import (
	"context"
	"encoding/json"

	"github.com/lucas/course-foundry/internal/prompts"
	"github.com/lucas/course-foundry/internal/schemas"
	"github.com/lucas/course-foundry/internal/types"
)

// GenerateExtras produces the final project, glossary, final assessment and
// best-effort usage report for the assembled course.
func (g *Generator) GenerateExtras(ctx context.Context, courseTitle string, persona types.Persona, strict bool) (*types.Extras, error) {
	prompt := prompts.BuildExtrasPrompt(courseTitle, persona, prompts.ExtrasCounts{
		FinalAssessmentItems: g.cfg.FinalAssessmentItems,
		QuizOptions:          g.cfg.QuizOptionCount,
	})

	raw, err := g.completeStage(ctx, schemas.StageExtras, prompt, g.cfg.ExtrasTier, strict)
	if err != nil {
		return nil, err
	}

	// Models have been seen emitting the usage report under a snake_case
	// key; both spellings are accepted.
	var decoded struct {
		Project           types.Project        `json:"project"`
		Glossary          []types.GlossaryItem `json:"glossary"`
		FinalAssessment   []types.QuizItem     `json:"finalAssessment"`
		UsageReport       types.UsageReport    `json:"usageReport"`
		LegacyUsageReport types.UsageReport    `json:"usage_report"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ValidationError{Stage: schemas.StageExtras, Reason: "failed to decode extras", Cause: err}
	}

	if err := checkQuizItems(schemas.StageExtras, "finalAssessment", decoded.FinalAssessment, g.cfg.FinalAssessmentItems, g.cfg.QuizOptionCount); err != nil {
		return nil, err
	}

	extras := &types.Extras{
		Project:         decoded.Project,
		Glossary:        decoded.Glossary,
		FinalAssessment: decoded.FinalAssessment,
		UsageReport:     decoded.UsageReport,
	}
	if extras.UsageReport == (types.UsageReport{}) {
		extras.UsageReport = decoded.LegacyUsageReport
	}
	if extras.Glossary == nil {
		extras.Glossary = []types.GlossaryItem{}
	}
	if extras.Project.Steps == nil {
		extras.Project.Steps = []string{}
	}

	return extras, nil
}
