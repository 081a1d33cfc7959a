package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyCallError(t *testing.T) {
	tests := []struct {
		name          string
		input         error
		wantTransient bool
		wantFatal     bool
	}{
		{
			name:      "Unauthorized is fatal",
			input:     &googleapi.Error{Code: http.StatusUnauthorized},
			wantFatal: true,
		},
		{
			name:      "Forbidden is fatal",
			input:     &googleapi.Error{Code: http.StatusForbidden},
			wantFatal: true,
		},
		{
			name:      "Bad request is fatal",
			input:     &googleapi.Error{Code: http.StatusBadRequest},
			wantFatal: true,
		},
		{
			name:          "Rate limit is transient",
			input:         &googleapi.Error{Code: http.StatusTooManyRequests},
			wantTransient: true,
		},
		{
			name:          "Server error is transient",
			input:         &googleapi.Error{Code: http.StatusServiceUnavailable},
			wantTransient: true,
		},
		{
			name:          "Deadline exceeded is transient",
			input:         context.DeadlineExceeded,
			wantTransient: true,
		},
		{
			name:          "Wrapped deadline exceeded is transient",
			input:         fmt.Errorf("call failed: %w", context.DeadlineExceeded),
			wantTransient: true,
		},
		{
			name:          "Cancelled context is transient",
			input:         context.Canceled,
			wantTransient: true,
		},
		{
			name:          "Unknown error defaults to transient",
			input:         errors.New("connection reset"),
			wantTransient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyCallError(tt.input)
			assert.Equal(t, tt.wantTransient, IsTransient(got))
			assert.Equal(t, tt.wantFatal, IsFatal(got))
			// The original error must remain reachable for callers
			assert.ErrorIs(t, got, tt.input)
		})
	}
}

func TestClassifyCallError_Nil(t *testing.T) {
	assert.NoError(t, classifyCallError(nil))
}

// A caller cancellation must not read like a service outage.
func TestClassifyCallError_CancelledMessage(t *testing.T) {
	got := classifyCallError(fmt.Errorf("call failed: %w", context.Canceled))
	assert.ErrorIs(t, got, context.Canceled)
	assert.Contains(t, got.Error(), "cancelled")
	assert.NotContains(t, got.Error(), "model call failed")
}

func TestErrorPredicates(t *testing.T) {
	malformed := &MalformedResponseError{Message: "not an object"}
	wrapped := fmt.Errorf("structure stage: %w", malformed)

	assert.True(t, IsMalformed(wrapped))
	assert.False(t, IsTransient(wrapped))
	assert.False(t, IsFatal(wrapped))
}
