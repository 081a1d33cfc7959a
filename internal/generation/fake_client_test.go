package generation

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lucas/course-foundry/internal/llm"
)

// recordedCall captures one CompleteJSON invocation for assertions.
type recordedCall struct {
	System string
	User   string
	Tier   llm.ModelTier
}

// fakeClient is a scripted llm.Client. Each call pops the next canned
// response; it records every prompt it was given.
type fakeClient struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []recordedCall
}

type fakeResponse struct {
	body json.RawMessage
	err  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{}
}

func (f *fakeClient) queue(body string) *fakeClient {
	f.responses = append(f.responses, fakeResponse{body: json.RawMessage(body)})
	return f
}

func (f *fakeClient) queueErr(err error) *fakeClient {
	f.responses = append(f.responses, fakeResponse{err: err})
	return f
}

func (f *fakeClient) CompleteJSON(_ context.Context, system, user string, tier llm.ModelTier) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recordedCall{System: system, User: user, Tier: tier})

	if len(f.responses) == 0 {
		return nil, &llm.FatalError{Message: "fake client exhausted"}
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.body, next.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) call(i int) recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}
