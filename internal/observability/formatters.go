// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucas/course-foundry/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPersona outputs the derived learner persona.
func (p *Printer) PrintPersona(persona types.Persona) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Complexity: %s\n", persona.Complexity))
	sb.WriteString(fmt.Sprintf("Tone:       %s\n", persona.Tone))
	sb.WriteString("\n")

	summary := persona.Summary
	sb.WriteString("Summary:\n")
	for len(summary) > boxWidth-6 {
		sb.WriteString(fmt.Sprintf("  %s\n", summary[:boxWidth-6]))
		summary = summary[boxWidth-6:]
	}
	sb.WriteString(fmt.Sprintf("  %s", summary))

	p.printBox("LEARNER PERSONA", sb.String())
}

// PrintStructure outputs the skeletal module/lesson tree.
func (p *Printer) PrintStructure(structure *types.CourseStructure) {
	if structure == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", structure.Title))
	sb.WriteString(fmt.Sprintf("%d modules, %d lessons\n", len(structure.Modules), structure.LessonCount()))

	for i, module := range structure.Modules {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, module.Title))
		count := min(len(module.Lessons), maxItemsToShow)
		for j := 0; j < count; j++ {
			sb.WriteString(fmt.Sprintf("   %d.%d %s\n", i+1, j+1, module.Lessons[j].Title))
		}
		if len(module.Lessons) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("   ... and %d more\n", len(module.Lessons)-maxItemsToShow))
		}
	}

	p.printBox("COURSE STRUCTURE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCourseSummary outputs a digest of the assembled course document.
func (p *Printer) PrintCourseSummary(course *types.CourseDocument) {
	if course == nil {
		return
	}

	lessons := 0
	quizItems := 0
	for _, module := range course.Modules {
		lessons += len(module.Lessons)
		for _, lesson := range module.Lessons {
			quizItems += len(lesson.Quiz)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", course.Title))
	sb.WriteString(fmt.Sprintf("Modules:  %d\n", len(course.Modules)))
	sb.WriteString(fmt.Sprintf("Lessons:  %d\n", lessons))
	sb.WriteString(fmt.Sprintf("Quiz:     %d lesson items + %d final\n", quizItems, len(course.FinalAssessment)))
	sb.WriteString(fmt.Sprintf("Glossary: %d terms\n", len(course.Glossary)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Project:  %s", course.Project.Title))
	if course.UsageReport.EstimatedTokens != "" {
		sb.WriteString(fmt.Sprintf("\nTokens:   ~%s", course.UsageReport.EstimatedTokens))
	}

	p.printBox("ASSEMBLED COURSE", sb.String())
}
