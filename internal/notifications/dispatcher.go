package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"instaclone/internal/middleware"
	"instaclone/internal/observability"
)

// Event is the frame written to websocket clients.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// Dispatcher routes user events to sockets. With Redis configured it publishes
// on the user's channel and the subscriber on each instance (this one included)
// delivers locally; without Redis it writes straight to the local hub.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

// NewDispatcher wires a hub and an optional notifier together.
func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

// PublishUserEvent encodes the event and delivers it to userID. Failures are
// logged and never returned.
func (d *Dispatcher) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode realtime event",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	message := string(data)

	if d.notifier.Enabled() {
		err := d.notifier.PublishUser(ctx, userID, message)
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "redis publish failed, delivering locally",
			slog.String("type", eventType),
			slog.Uint64("recipient_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, message)
	}
}

// EventAnnouncement is the event type of operator messages sent to everyone.
const EventAnnouncement = "announcement"

// Announce delivers an operator message to every connected user. With Redis
// configured it goes out on the broadcast channel; otherwise only the local hub
// receives it.
func (d *Dispatcher) Announce(ctx context.Context, message string) error {
	data, err := json.Marshal(Event{Type: EventAnnouncement, Payload: map[string]interface{}{"message": message}})
	if err != nil {
		return err
	}
	observability.WebSocketEventsTotal.WithLabelValues(EventAnnouncement).Inc()

	if d.notifier.Enabled() {
		return d.notifier.PublishBroadcast(ctx, string(data))
	}
	if d.hub == nil {
		return errors.New("no notifier or hub to deliver the announcement")
	}
	d.hub.BroadcastAll(string(data))
	return nil
}
