package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitricare/emergency-locator/internal/adapters/events"
	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

func TestSSEHandler_StreamRunEvents(t *testing.T) {
	bus := events.NewLocalEventBus()
	defer bus.Close()

	handler := NewSSEHandler(bus)
	server := httptest.NewServer(http.HandlerFunc(handler.StreamRunEvents))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First frame announces the connection.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected", strings.TrimSpace(line))

	// Drain the rest of the connected frame.
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) == "" {
			break
		}
	}

	// The connected frame is written after the subscription is registered,
	// so the publish below cannot be missed.
	err = bus.Publish(context.Background(), providers.EventChannelSearchRuns, &entities.SearchEvent{
		EventType: entities.SearchEventTransition,
		RunID:     "run-1",
		Token:     1,
		Status:    entities.SearchStatus{State: entities.StateLocating},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: transition", strings.TrimSpace(line))

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	data := strings.TrimPrefix(strings.TrimSpace(line), "data: ")
	assert.Contains(t, data, `"run_id":"run-1"`)
	assert.Contains(t, data, string(entities.StateLocating))
}
