// Package notifications delivers post-commit billing events to an external
// webhook. Delivery is fire and forget: a full queue or a failed POST is
// logged and dropped, never surfaced to the request that produced the event.
package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Event struct {
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// Dispatcher queues events and POSTs them to the configured webhook URL from
// a single background goroutine. With an empty URL it only logs, which is how
// development environments run.
type Dispatcher struct {
	url    string
	client *http.Client
	logger *slog.Logger

	queue chan Event
	wg    sync.WaitGroup
}

func NewDispatcher(url string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		url: url,
		// Slow receivers must not back the queue up indefinitely.
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
		queue:  make(chan Event, 256),
	}
}

// Start launches the delivery goroutine. Call Close to drain and stop it.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.queue {
			if d.url == "" {
				d.logger.Info("event", "name", ev.Name, "payload", ev.Payload)
				continue
			}
			if err := d.send(ev); err != nil {
				d.logger.Error("webhook delivery failed", "name", ev.Name, "error", err)
			}
		}
	}()
}

// Publish enqueues the event without blocking. When the queue is full the
// event is dropped; billing state is the source of truth, not the webhook.
func (d *Dispatcher) Publish(name string, payload map[string]any) {
	ev := Event{Name: name, OccurredAt: time.Now().UTC(), Payload: payload}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("event queue full, dropping", "name", name)
	}
}

// Close drains the queue and stops the delivery goroutine.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) send(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lms-backend-webhook/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook receiver returned %d", resp.StatusCode)
}
