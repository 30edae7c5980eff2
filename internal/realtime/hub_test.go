package realtime

import (
	"testing"

	"github.com/google/uuid"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
)

func newHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return NewSSEHub(log)
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := newHub(t)
	notebookID := uuid.New()
	channel := NotebookChannel(notebookID)

	subscribed := hub.NewSSEClient(uuid.New())
	hub.AddChannel(subscribed, channel)
	bystander := hub.NewSSEClient(uuid.New())
	hub.AddChannel(bystander, NotebookChannel(uuid.New()))

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSourceStatusChanged, Data: "x"})

	select {
	case msg := <-subscribed.Outbound:
		if msg.Event != SSEEventSourceStatusChanged {
			t.Fatalf("wrong event: %s", msg.Event)
		}
	default:
		t.Fatal("subscriber did not receive the broadcast")
	}
	select {
	case msg := <-bystander.Outbound:
		t.Fatalf("bystander received %v", msg)
	default:
	}
}

func TestRemoveChannelStopsDelivery(t *testing.T) {
	hub := newHub(t)
	channel := NotebookChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)
	hub.RemoveChannel(client, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSourceCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unsubscribed client received %v", msg)
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newHub(t)
	channel := NotebookChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	// Nobody drains Outbound; the hub must not block.
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSourceStatusChanged, Data: i})
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("buffer should be full, have %d", len(client.Outbound))
	}
}
