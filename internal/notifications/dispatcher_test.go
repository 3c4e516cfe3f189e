package notifications

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherDeliversEvents(t *testing.T) {
	var mu sync.Mutex
	var received []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var ev Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, discardLogger())
	d.Start()
	d.Publish("student.charged", map[string]any{"charge_id": "c-1"})
	d.Publish("payment.refunded", map[string]any{"payment_id": "p-1"})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, "student.charged", received[0].Name)
	assert.Equal(t, "c-1", received[0].Payload["charge_id"])
	assert.False(t, received[0].OccurredAt.IsZero())
}

func TestDispatcherWithoutURLOnlyLogs(t *testing.T) {
	d := NewDispatcher("", discardLogger())
	d.Start()
	d.Publish("student.charged", map[string]any{"charge_id": "c-1"})
	d.Close()
}

func TestDispatcherSurvivesReceiverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, discardLogger())
	d.Start()
	d.Publish("payment.failed", map[string]any{"error": "boom"})
	d.Close()
}
