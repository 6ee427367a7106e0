package events

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"retail-backoffice/internal/ws"
)

// Publisher delivers an envelope. Implementations must not block the request
// path for long; failures are logged, never returned to the client.
type Publisher interface {
	Publish(ctx context.Context, e Envelope)
}

type Nop struct{}

func (Nop) Publish(context.Context, Envelope) {}

// Multi fans an envelope out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Envelope) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// HubPublisher pushes envelopes to connected WebSocket clients.
type HubPublisher struct {
	hub *ws.Hub
	log *logrus.Logger
}

func NewHubPublisher(hub *ws.Hub, log *logrus.Logger) *HubPublisher {
	return &HubPublisher{hub: hub, log: log}
}

func (p *HubPublisher) Publish(_ context.Context, e Envelope) {
	msg, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).WithField("event_type", e.EventType).Error("marshal ws event")
		return
	}
	p.hub.Send(msg)
}

// Recorder keeps every envelope it receives. Used by tests and by the seed
// command to print what happened.
type Recorder struct {
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, e Envelope) {
	r.Events = append(r.Events, e)
}

func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.EventType
	}
	return out
}
