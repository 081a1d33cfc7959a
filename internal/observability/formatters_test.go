package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucas/course-foundry/internal/types"
)

func TestPrintPersona(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPersona(types.Persona{
		Summary:    "A curious beginner",
		Tone:       "Encouraging",
		Complexity: types.ComplexityBeginner,
	})

	out := buf.String()
	assert.Contains(t, out, "LEARNER PERSONA")
	assert.Contains(t, out, "Beginner")
	assert.Contains(t, out, "Encouraging")
}

func TestPrintStructure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStructure(&types.CourseStructure{
		Title: "Intro to Probability",
		Modules: []types.ModuleStub{
			{Title: "Foundations", Lessons: []types.LessonStub{{Title: "Sample Spaces"}, {Title: "Events"}}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "COURSE STRUCTURE")
	assert.Contains(t, out, "1. Foundations")
	assert.Contains(t, out, "1.1 Sample Spaces")
	assert.Contains(t, out, "2 lessons")
}

func TestPrintStructure_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStructure(nil)
	assert.Empty(t, buf.String())
}

func TestPrintCourseSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCourseSummary(&types.CourseDocument{
		Title: "Intro to Probability",
		Modules: []types.Module{
			{Title: "Foundations", Lessons: []types.Lesson{
				{Title: "Sample Spaces", LessonContent: types.LessonContent{Quiz: make([]types.QuizItem, 2)}},
			}},
		},
		FinalAssessment: make([]types.QuizItem, 5),
		Glossary:        []types.GlossaryItem{{Term: "Event", Definition: "A set of outcomes"}},
		Project:         types.Project{Title: "Dice simulator"},
		UsageReport:     types.UsageReport{EstimatedTokens: "12000"},
	})

	out := buf.String()
	assert.Contains(t, out, "ASSEMBLED COURSE")
	assert.Contains(t, out, "Dice simulator")
	assert.Contains(t, out, "~12000")
}
