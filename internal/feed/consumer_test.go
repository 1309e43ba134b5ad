package feed

import (
	"context"
	"testing"
	"time"

	"github.com/orgraph/dispatch/internal/changeset"
	"github.com/orgraph/dispatch/internal/dispatch"
)

type recordingHandler struct {
	batches [][]changeset.Changeset
	done    chan struct{}
}

func (h *recordingHandler) HandleChangesets(ctx context.Context, sets []changeset.Changeset) ([]dispatch.Result, error) {
	h.batches = append(h.batches, sets)
	select {
	case h.done <- struct{}{}:
	default:
	}
	return nil, nil
}

func TestRunHandsMessagesToHandlerInOrder(t *testing.T) {
	c := NewConsumer("localhost:9092", "test", "delta.inserts", "delta.deletes")
	handler := &recordingHandler{done: make(chan struct{}, 2)}

	payload := []byte(`[{"inserts":[{"subject":{"type":"uri","value":"http://ex.org/s"},"predicate":{"type":"uri","value":"http://ex.org/p"},"object":{"type":"uri","value":"http://ex.org/o"},"graph":{"type":"uri","value":"http://ex.org/g"}}]}]`)
	sets, err := changeset.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c.messages <- Message{Topic: "delta.inserts", Sets: sets}
	c.messages <- Message{Topic: "delta.deletes", Sets: sets}

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx, handler)

	for i := 0; i < 2; i++ {
		select {
		case <-handler.done:
		case <-time.After(time.Second):
			t.Fatalf("handler never saw message %d", i)
		}
	}
	cancel()

	if len(handler.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(handler.batches))
	}
	if len(handler.batches[0]) != 1 || len(handler.batches[0][0].Inserts) != 1 {
		t.Fatalf("changeset shape lost: %+v", handler.batches[0])
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	c := NewConsumer("localhost:9092", "test", "delta.inserts", "delta.deletes")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, &recordingHandler{done: make(chan struct{}, 1)}); err == nil {
		t.Fatalf("expected context error")
	}
}
