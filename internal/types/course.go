// Package types provides type definitions for structured data used throughout the course-foundry system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// LearnerProfile holds the user inputs a generation starts from. Everything
// except the topic is optional free text.
type LearnerProfile struct {
	Topic          string `json:"topic" validate:"required,min=1"`
	Purpose        string `json:"purpose,omitempty"`
	EducationLevel string `json:"educationLevel,omitempty"`
	PriorKnowledge string `json:"priorKnowledge,omitempty"`
	LearningStyle  string `json:"learningStyle,omitempty"`
}

// Validate validates the LearnerProfile using the validator.
func (p *LearnerProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// Persona is the derived learner summary produced once per generation and
// injected verbatim into every later stage. It is never mutated after stage 1;
// that is what keeps tone and difficulty consistent across lessons.
type Persona struct {
	Summary    string `json:"summary"`
	Tone       string `json:"tone"`
	Complexity string `json:"complexity"`
}

// Complexity levels the persona stage is instructed to choose from. The field
// stays a free string because models occasionally qualify the level.
const (
	ComplexityBeginner     = "Beginner"
	ComplexityIntermediate = "Intermediate"
	ComplexityAdvanced     = "Advanced"
)

// LessonStub is a lesson entry containing only a title, prior to expansion.
type LessonStub struct {
	Title string `json:"title"`
}

// ModuleStub is a module with lesson titles but no lesson content.
type ModuleStub struct {
	Title   string       `json:"title"`
	Lessons []LessonStub `json:"lessons"`
}

// CourseStructure is the skeletal module/lesson tree produced by stage 2.
type CourseStructure struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Modules     []ModuleStub `json:"modules"`
}

// LessonCount returns the total number of lessons across all modules.
func (s *CourseStructure) LessonCount() int {
	count := 0
	for _, m := range s.Modules {
		count += len(m.Lessons)
	}
	return count
}

// ImageSpec describes an illustrative image as a generation prompt plus caption.
type ImageSpec struct {
	Prompt  string `json:"prompt"`
	Caption string `json:"caption"`
}

// GraphType enumerates the chart kinds the presentation layer can render.
const (
	GraphBar  = "bar"
	GraphLine = "line"
	GraphPie  = "pie"
)

// DataPoint is one named value in a graph series.
type DataPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// GraphSpec describes a chart embedded in a lesson.
type GraphSpec struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	Data  []DataPoint `json:"data"`
}

// QuizItem is a single multiple-choice question. Options always holds exactly
// four entries and Correct is a zero-based index into it.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// LessonContent is the expanded body of one lesson.
type LessonContent struct {
	Explanation string        `json:"explanation"`
	Examples    []ExampleItem `json:"examples"`
	Analogies   []ExampleItem `json:"analogies"`
	Images      []ImageSpec   `json:"images"`
	Graphs      []GraphSpec   `json:"graphs"`
	Quiz        []QuizItem    `json:"quiz"`
}

// Lesson is a lesson stub merged with its generated content.
type Lesson struct {
	Title string `json:"title"`
	LessonContent
}

// Module is a module with fully expanded lessons.
type Module struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Project is the hands-on final project suggested for the course.
type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// GlossaryItem is one term/definition pair.
type GlossaryItem struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// UsageReport carries the model's best-effort estimate of generation cost.
type UsageReport struct {
	EstimatedTokens string `json:"estimatedTokens"`
	EstimatedTime   string `json:"estimatedTime"`
}

// Extras holds the course-level artifacts produced by the final stage.
type Extras struct {
	Project         Project        `json:"project"`
	Glossary        []GlossaryItem `json:"glossary"`
	FinalAssessment []QuizItem     `json:"finalAssessment"`
	UsageReport     UsageReport    `json:"usageReport"`
}

// CourseDocument is the fully assembled output of a successful pipeline run.
// Its JSON shape is the interchange contract with persistence and
// presentation: adding fields is safe, renaming or removing is breaking.
type CourseDocument struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Modules         []Module       `json:"modules"`
	Project         Project        `json:"project"`
	Glossary        []GlossaryItem `json:"glossary"`
	FinalAssessment []QuizItem     `json:"finalAssessment"`
	UsageReport     UsageReport    `json:"usageReport"`
	Persona         Persona        `json:"persona"`
}
