package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucas/course-foundry/internal/generation"
	"github.com/lucas/course-foundry/internal/llm"
	"github.com/lucas/course-foundry/internal/types"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryBaseDelay = time.Millisecond
	return opts
}

func testProfile() types.LearnerProfile {
	return types.LearnerProfile{
		Topic:          "Probability",
		Purpose:        "School",
		EducationLevel: "Undergraduate",
		PriorKnowledge: "Some Knowledge",
		LearningStyle:  "Visual",
	}
}

func TestRun_AssemblesFullCourse(t *testing.T) {
	client := newStubClient()
	p := New(client, testOptions())

	course, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)
	require.NotNil(t, course)

	assert.Equal(t, StateAssembled, p.State())
	// 1 persona + 1 structure + 4 lessons + 1 extras
	assert.Equal(t, 7, client.callCount())

	assert.Equal(t, "Probability Without Tears", course.Title)
	assert.Equal(t, "A gentle introduction", course.Description)
	require.Len(t, course.Modules, 2)

	// Lessons land in structure order regardless of completion order
	assert.Equal(t, "Foundations", course.Modules[0].Title)
	assert.Equal(t, "Sample Spaces", course.Modules[0].Lessons[0].Title)
	assert.Equal(t, "All about Sample Spaces.", course.Modules[0].Lessons[0].Explanation)
	assert.Equal(t, "All about Events.", course.Modules[0].Lessons[1].Explanation)
	assert.Equal(t, "All about Addition Rule.", course.Modules[1].Lessons[0].Explanation)
	assert.Equal(t, "All about Multiplication Rule.", course.Modules[1].Lessons[1].Explanation)

	assert.Equal(t, "Build a dice simulator", course.Project.Title)
	assert.Len(t, course.FinalAssessment, 5)
	assert.Equal(t, "12000", course.UsageReport.EstimatedTokens)
	assert.Equal(t, types.ComplexityBeginner, course.Persona.Complexity)
}

func TestRun_EmptyTopicMakesNoModelCalls(t *testing.T) {
	for _, topic := range []string{"", "   "} {
		client := newStubClient()
		p := New(client, testOptions())

		_, err := p.Run(context.Background(), types.LearnerProfile{Topic: topic})
		require.Error(t, err)

		var ive *InputValidationError
		assert.True(t, errors.As(err, &ive))
		assert.Equal(t, StateFailed, p.State())
		assert.Equal(t, 0, client.callCount())
	}
}

func TestRun_PersonaPropagatesVerbatim(t *testing.T) {
	client := newStubClient()
	p := New(client, testOptions())

	course, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)

	// The structure prompt carries the persona as serialized data
	structureCalls := client.stageCalls("structure")
	require.Len(t, structureCalls, 1)
	assert.Contains(t, structureCalls[0].User, `"summary":"A curious beginner"`)
	assert.Contains(t, structureCalls[0].User, `"tone":"Encouraging and simple"`)

	// Every lesson and the extras see the same tone and complexity
	for _, call := range client.stageCalls("lesson") {
		assert.Contains(t, call.User, "Encouraging and simple")
		assert.Contains(t, call.User, "Beginner")
	}
	extrasCalls := client.stageCalls("extras")
	require.Len(t, extrasCalls, 1)
	assert.Contains(t, extrasCalls[0].User, "Encouraging and simple")

	// The assembled document carries the stage-1 persona unchanged
	assert.Equal(t, types.Persona{
		Summary:    "A curious beginner",
		Tone:       "Encouraging and simple",
		Complexity: types.ComplexityBeginner,
	}, course.Persona)
}

func TestRun_TransientErrorsRetryWithBackoff(t *testing.T) {
	client := newStubClient()
	personaBody := `{"summary": "s", "tone": "t", "complexity": "Beginner"}`
	client.on("persona", func(n int, _ recordedCall) (string, error) {
		if n < 2 {
			return "", &llm.TransientError{Message: "rate limited"}
		}
		return personaBody, nil
	})
	p := New(client, testOptions())

	_, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Len(t, client.stageCalls("persona"), 3)
}

func TestRun_TransientExhaustionFailsStage(t *testing.T) {
	client := newStubClient()
	client.on("persona", func(int, recordedCall) (string, error) {
		return "", &llm.TransientError{Message: "rate limited"}
	})
	p := New(client, testOptions())

	_, err := p.Run(context.Background(), testProfile())
	require.Error(t, err)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, StatePersona, pe.Stage)
	assert.Equal(t, -1, pe.Module)
	assert.True(t, llm.IsTransient(pe.Cause))
	assert.Equal(t, StateFailed, p.State())
	assert.Len(t, client.stageCalls("persona"), 3)
}

func TestRun_ShapeFailureGetsOneStricterReprompt(t *testing.T) {
	oversized := `{"title": "T", "modules": [
		{"title": "M1", "lessons": [{"title": "L"}]},
		{"title": "M2", "lessons": [{"title": "L"}]},
		{"title": "M3", "lessons": [{"title": "L"}]},
		{"title": "M4", "lessons": [{"title": "L"}]}
	]}`
	valid := `{"title": "T", "description": "d", "modules": [
		{"title": "M1", "lessons": [{"title": "Only Lesson"}]}
	]}`

	client := newStubClient()
	client.on("structure", func(n int, _ recordedCall) (string, error) {
		if n == 0 {
			return oversized, nil
		}
		return valid, nil
	})
	p := New(client, testOptions())

	course, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Len(t, course.Modules, 1)

	calls := client.stageCalls("structure")
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[0].User, "did not match the required shape")
	assert.Contains(t, calls[1].User, "did not match the required shape")
}

func TestRun_RepeatedShapeFailureFailsStage(t *testing.T) {
	oversized := `{"title": "T", "modules": [
		{"title": "M1", "lessons": [{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}]}
	]}`
	client := newStubClient()
	client.on("structure", func(int, recordedCall) (string, error) {
		return oversized, nil
	})
	p := New(client, testOptions())

	_, err := p.Run(context.Background(), testProfile())
	require.Error(t, err)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, StateStructure, pe.Stage)
	assert.True(t, generation.IsValidation(pe.Cause))
	// First attempt plus the single stricter re-prompt, nothing more
	assert.Len(t, client.stageCalls("structure"), 2)
}

func TestRun_FatalErrorEscalatesImmediately(t *testing.T) {
	client := newStubClient()
	client.on("lesson", func(_ int, call recordedCall) (string, error) {
		if lessonTitleOf(call.User) == "Multiplication Rule" {
			return "", &llm.FatalError{Message: "invalid api key"}
		}
		return lessonBodyFor(lessonTitleOf(call.User)), nil
	})
	p := New(client, testOptions())

	course, err := p.Run(context.Background(), testProfile())
	require.Error(t, err)
	assert.Nil(t, course)
	assert.Equal(t, StateFailed, p.State())

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, StateExpanding, pe.Stage)
	assert.Equal(t, 1, pe.Module)
	assert.Equal(t, 1, pe.Lesson)
	assert.True(t, llm.IsFatal(pe.Cause))

	// The failing lesson was called exactly once, no retries
	failing := 0
	for _, call := range client.stageCalls("lesson") {
		if lessonTitleOf(call.User) == "Multiplication Rule" {
			failing++
		}
	}
	assert.Equal(t, 1, failing)
}

func TestRun_LessonConcurrencyIsBounded(t *testing.T) {
	var inFlight, peak atomic.Int32

	client := newStubClient()
	client.on("lesson", func(_ int, call recordedCall) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return lessonBodyFor(lessonTitleOf(call.User)), nil
	})

	opts := testOptions()
	opts.LessonConcurrency = 2
	p := New(client, opts)

	_, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, client.stageCalls("lesson"), 4)
}

func TestRun_EmitsProgressInStageOrder(t *testing.T) {
	var mu sync.Mutex
	var events []ProgressEvent

	opts := testOptions()
	opts.OnProgress = func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	p := New(newStubClient(), opts)

	_, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)

	require.Len(t, events, 8)
	assert.Equal(t, StatePersona, events[0].Stage)
	assert.Equal(t, StateStructure, events[1].Stage)

	seen := map[[2]int]bool{}
	for _, e := range events[2:6] {
		assert.Equal(t, StateExpanding, e.Stage)
		seen[[2]int{e.Module, e.Lesson}] = true
	}
	assert.Len(t, seen, 4)

	assert.Equal(t, StateExtras, events[6].Stage)
	assert.Equal(t, StateAssembled, events[7].Stage)
}

func TestRun_CancelledContextStopsAtStageBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := newStubClient()
	client.on("persona", func(int, recordedCall) (string, error) {
		cancel()
		return `{"summary": "s", "tone": "t", "complexity": "Beginner"}`, nil
	})
	p := New(client, testOptions())

	_, err := p.Run(ctx, testProfile())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateFailed, p.State())
	// Persona completed, structure never started
	assert.Len(t, client.stageCalls("persona"), 1)
	assert.Empty(t, client.stageCalls("structure"))
}

func TestRun_IsSingleUse(t *testing.T) {
	client := newStubClient()
	p := New(client, testOptions())

	_, err := p.Run(context.Background(), testProfile())
	require.NoError(t, err)

	_, err = p.Run(context.Background(), testProfile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already run")
}
