package prompts

import (
	"encoding/json"
	"strconv"

	"github.com/lucas/course-foundry/internal/types"
)

const generationFile = "generation.json"

// Prompt pairs the system instruction with the user instruction for one
// model call.
type Prompt struct {
	System string
	User   string
}

// WithStrictRetry returns a copy of the prompt with the re-prompt suffix
// appended. Used for the single stricter retry after a shape failure.
func (p Prompt) WithStrictRetry() Prompt {
	return Prompt{
		System: p.System,
		User:   p.User + MustGet(generationFile, "strict-retry-suffix"),
	}
}

// StructureLimits carries the fan-out caps embedded into the structure prompt.
type StructureLimits struct {
	MaxModules          int
	MaxLessonsPerModule int
	MaxTotalLessons     int
}

// LessonCounts carries the exact item counts requested from the lesson stage.
type LessonCounts struct {
	Examples    int
	Analogies   int
	QuizItems   int
	QuizOptions int
}

// ExtrasCounts carries the item counts requested from the extras stage.
type ExtrasCounts struct {
	FinalAssessmentItems int
	QuizOptions          int
}

// BuildPersonaPrompt embeds the learner profile into the persona instruction.
func BuildPersonaPrompt(profile types.LearnerProfile) Prompt {
	return Prompt{
		System: MustGet(generationFile, "persona-system"),
		User: Format(MustGet(generationFile, "persona-user"), map[string]string{
			"Topic":          profile.Topic,
			"Purpose":        orUnspecified(profile.Purpose),
			"EducationLevel": orUnspecified(profile.EducationLevel),
			"PriorKnowledge": orUnspecified(profile.PriorKnowledge),
			"LearningStyle":  orUnspecified(profile.LearningStyle),
		}),
	}
}

// BuildStructurePrompt embeds the persona verbatim, as serialized data rather
// than a paraphrase, plus the module/lesson caps.
func BuildStructurePrompt(topic string, persona types.Persona, limits StructureLimits) Prompt {
	personaJSON, _ := json.Marshal(persona)
	return Prompt{
		System: MustGet(generationFile, "structure-system"),
		User: Format(MustGet(generationFile, "structure-user"), map[string]string{
			"Topic":               topic,
			"PersonaJSON":         string(personaJSON),
			"MaxModules":          strconv.Itoa(limits.MaxModules),
			"MaxLessonsPerModule": strconv.Itoa(limits.MaxLessonsPerModule),
			"MaxTotalLessons":     strconv.Itoa(limits.MaxTotalLessons),
		}),
	}
}

// BuildLessonPrompt embeds the full lexical context chain (course -> module ->
// lesson) plus the persona's summary, complexity and tone.
func BuildLessonPrompt(lessonTitle, moduleTitle, courseTitle string, persona types.Persona, counts LessonCounts) Prompt {
	return Prompt{
		System: MustGet(generationFile, "lesson-system"),
		User: Format(MustGet(generationFile, "lesson-user"), map[string]string{
			"CourseTitle":       courseTitle,
			"ModuleTitle":       moduleTitle,
			"LessonTitle":       lessonTitle,
			"PersonaSummary":    persona.Summary,
			"PersonaComplexity": persona.Complexity,
			"PersonaTone":       persona.Tone,
			"Examples":          strconv.Itoa(counts.Examples),
			"Analogies":         strconv.Itoa(counts.Analogies),
			"QuizItems":         strconv.Itoa(counts.QuizItems),
			"QuizOptions":       strconv.Itoa(counts.QuizOptions),
		}),
	}
}

// BuildExtrasPrompt requests the final project, glossary, final assessment
// and usage report for the assembled course.
func BuildExtrasPrompt(courseTitle string, persona types.Persona, counts ExtrasCounts) Prompt {
	return Prompt{
		System: MustGet(generationFile, "extras-system"),
		User: Format(MustGet(generationFile, "extras-user"), map[string]string{
			"CourseTitle":       courseTitle,
			"PersonaComplexity": persona.Complexity,
			"PersonaTone":       persona.Tone,
			"Items":             strconv.Itoa(counts.FinalAssessmentItems),
			"QuizOptions":       strconv.Itoa(counts.QuizOptions),
		}),
	}
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
