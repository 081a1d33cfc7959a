package generation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lucas/course-foundry/internal/prompts"
	"github.com/lucas/course-foundry/internal/schemas"
	"github.com/lucas/course-foundry/internal/types"
)

// GeneratePersona derives the learner persona from the profile. The returned
// persona is treated as read-only by every later stage.
func (g *Generator) GeneratePersona(ctx context.Context, profile types.LearnerProfile, strict bool) (types.Persona, error) {
	prompt := prompts.BuildPersonaPrompt(profile)

	raw, err := g.completeStage(ctx, schemas.StagePersona, prompt, g.cfg.PersonaTier, strict)
	if err != nil {
		return types.Persona{}, err
	}

	var persona types.Persona
	if err := json.Unmarshal(raw, &persona); err != nil {
		return types.Persona{}, &ValidationError{Stage: schemas.StagePersona, Reason: "failed to decode persona", Cause: err}
	}

	persona.Summary = strings.TrimSpace(persona.Summary)
	persona.Tone = strings.TrimSpace(persona.Tone)
	persona.Complexity = strings.TrimSpace(persona.Complexity)

	return persona, nil
}
