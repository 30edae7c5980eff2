package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/realtime/bus"
)

// EventPublisher pushes live updates onto a notebook's SSE channel.
// Services call it after commit; delivery is best effort and never
// fails the request.
type EventPublisher interface {
	PublishSourceEvent(ctx context.Context, notebookID uuid.UUID, event realtime.SSEEvent, data any)
}

type eventPublisher struct {
	log *logger.Logger
	bus bus.Bus
}

func NewEventPublisher(b bus.Bus, baseLog *logger.Logger) EventPublisher {
	return &eventPublisher{log: baseLog.With("service", "EventPublisher"), bus: b}
}

func (p *eventPublisher) PublishSourceEvent(ctx context.Context, notebookID uuid.UUID, event realtime.SSEEvent, data any) {
	if p == nil || p.bus == nil || notebookID == uuid.Nil {
		return
	}
	msg := realtime.SSEMessage{
		Channel: realtime.NotebookChannel(notebookID),
		Event:   event,
		Data:    data,
	}
	if err := p.bus.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish SSE event", "event", event, "notebook_id", notebookID, "error", err)
	}
}
