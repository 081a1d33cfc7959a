package server

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter_WriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteEvent("progress", map[string]string{"message": "hi"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: progress\ndata: {\"message\":\"hi\"}\n\n", rec.Body.String())
}

func TestSSEWriter_ConcurrentEventsStayFramed(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				assert.NoError(t, sse.WriteEvent("progress", map[string]int{"writer": id, "seq": j}))
			}
		}(i)
	}
	wg.Wait()

	body := rec.Body.String()
	require.True(t, strings.HasSuffix(body, "\n\n"))
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, frames, writers*perWriter)
	for _, frame := range frames {
		lines := strings.Split(frame, "\n")
		require.Len(t, lines, 2, "frame %q", frame)
		assert.Equal(t, "event: progress", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], `data: {"`), "frame %q", frame)
		assert.True(t, strings.HasSuffix(lines[1], "}"), "frame %q", frame)
	}
}
