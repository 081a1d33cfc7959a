package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lucas/course-foundry/internal/llm"
)

// recordedCall captures one CompleteJSON invocation for assertions.
type recordedCall struct {
	Stage  string
	System string
	User   string
	Tier   llm.ModelTier
}

// stageHandler produces the response for the n-th call (zero-based) of a
// stage. Returning an error simulates a service failure.
type stageHandler func(n int, call recordedCall) (string, error)

// stubClient is a scripted llm.Client that dispatches on the stage implied by
// the system instruction. Lessons run concurrently, so responses are keyed by
// stage instead of global call order.
type stubClient struct {
	mu       sync.Mutex
	calls    []recordedCall
	counts   map[string]int
	handlers map[string]stageHandler
}

func stageOf(system string) string {
	switch {
	case strings.Contains(system, "pedagogical"):
		return "persona"
	case strings.Contains(system, "curriculum"):
		return "structure"
	case strings.Contains(system, "teacher"):
		return "lesson"
	case strings.Contains(system, "content creator"):
		return "extras"
	}
	return "unknown"
}

// newStubClient returns a client scripted with a full happy path: a beginner
// persona, a 2x2 structure, lesson bodies derived from the requested lesson
// title, and a complete extras payload.
func newStubClient() *stubClient {
	c := &stubClient{
		counts:   map[string]int{},
		handlers: map[string]stageHandler{},
	}
	c.handlers["persona"] = func(int, recordedCall) (string, error) {
		return `{"summary": "A curious beginner", "tone": "Encouraging and simple", "complexity": "Beginner"}`, nil
	}
	c.handlers["structure"] = func(int, recordedCall) (string, error) {
		return `{
			"title": "Probability Without Tears",
			"description": "A gentle introduction",
			"modules": [
				{"title": "Foundations", "lessons": [{"title": "Sample Spaces"}, {"title": "Events"}]},
				{"title": "Rules", "lessons": [{"title": "Addition Rule"}, {"title": "Multiplication Rule"}]}
			]
		}`, nil
	}
	c.handlers["lesson"] = func(_ int, call recordedCall) (string, error) {
		return lessonBodyFor(lessonTitleOf(call.User)), nil
	}
	c.handlers["extras"] = func(int, recordedCall) (string, error) {
		return `{
			"project": {"title": "Build a dice simulator", "description": "Simulate rolls", "steps": ["Plan", "Code"]},
			"glossary": [{"term": "Event", "definition": "A set of outcomes"}],
			"finalAssessment": [
				{"question": "Q1", "options": ["a", "b", "c", "d"], "correct": 0, "explanation": "e"},
				{"question": "Q2", "options": ["a", "b", "c", "d"], "correct": 1, "explanation": "e"},
				{"question": "Q3", "options": ["a", "b", "c", "d"], "correct": 2, "explanation": "e"},
				{"question": "Q4", "options": ["a", "b", "c", "d"], "correct": 3, "explanation": "e"},
				{"question": "Q5", "options": ["a", "b", "c", "d"], "correct": 0, "explanation": "e"}
			],
			"usageReport": {"estimatedTokens": "12000", "estimatedTime": "45s"}
		}`, nil
	}
	return c
}

// on replaces the handler for one stage.
func (c *stubClient) on(stage string, h stageHandler) *stubClient {
	c.handlers[stage] = h
	return c
}

func (c *stubClient) CompleteJSON(_ context.Context, system, user string, tier llm.ModelTier) (json.RawMessage, error) {
	c.mu.Lock()
	stage := stageOf(system)
	call := recordedCall{Stage: stage, System: system, User: user, Tier: tier}
	n := c.counts[stage]
	c.counts[stage]++
	c.calls = append(c.calls, call)
	handler := c.handlers[stage]
	c.mu.Unlock()

	if handler == nil {
		return nil, &llm.FatalError{Message: fmt.Sprintf("no handler for stage %s", stage)}
	}
	body, err := handler(n, call)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *stubClient) GetModel(llm.ModelTier) string { return "stub-model" }

func (c *stubClient) Close() error { return nil }

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *stubClient) stageCalls(stage string) []recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []recordedCall
	for _, call := range c.calls {
		if call.Stage == stage {
			out = append(out, call)
		}
	}
	return out
}

// lessonTitleOf pulls the requested lesson title back out of the prompt.
func lessonTitleOf(user string) string {
	for _, line := range strings.Split(user, "\n") {
		if after, ok := strings.CutPrefix(line, "Lesson: "); ok {
			return after
		}
	}
	return ""
}

// lessonBodyFor builds a valid lesson response whose explanation names the
// lesson, so tests can verify each result landed in the right slot.
func lessonBodyFor(title string) string {
	return fmt.Sprintf(`{
		"explanation": "All about %s.",
		"examples": ["Example one", "Example two"],
		"analogies": ["Analogy one", "Analogy two"],
		"quiz": [
			{"question": "Q1", "options": ["a", "b", "c", "d"], "correct": 0, "explanation": "e"},
			{"question": "Q2", "options": ["a", "b", "c", "d"], "correct": 1, "explanation": "e"}
		]
	}`, title)
}
