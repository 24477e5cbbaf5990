package lifecycle

import (
	"context"

	"typing-battle/client/logging"
)

const (
	// EventSystemStarted is emitted after a system's Start phase completes.
	EventSystemStarted logging.EventType = "lifecycle.system_started"
	// EventSystemStopped is emitted after a system's Stop phase completes.
	EventSystemStopped logging.EventType = "lifecycle.system_stopped"
	// EventSystemFailed is emitted when a system's Init returns an error.
	EventSystemFailed logging.EventType = "lifecycle.system_failed"
	// EventHandlerPanic is emitted when a subscriber callback panics.
	EventHandlerPanic logging.EventType = "lifecycle.handler_panic"
)

func SystemStarted(ctx context.Context, pub logging.Publisher, name string) {
	publish(ctx, pub, logging.Event{
		Type:     EventSystemStarted,
		Actor:    logging.EntityRef{ID: name, Kind: logging.EntityKindSystem},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func SystemStopped(ctx context.Context, pub logging.Publisher, name string) {
	publish(ctx, pub, logging.Event{
		Type:     EventSystemStopped,
		Actor:    logging.EntityRef{ID: name, Kind: logging.EntityKindSystem},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func SystemFailed(ctx context.Context, pub logging.Publisher, name string, err error) {
	event := logging.Event{
		Type:     EventSystemFailed,
		Actor:    logging.EntityRef{ID: name, Kind: logging.EntityKindSystem},
		Severity: logging.SeverityError,
		Category: logging.CategoryLifecycle,
	}
	if err != nil {
		event.Payload = map[string]string{"error": err.Error()}
	}
	publish(ctx, pub, event)
}

func HandlerPanic(ctx context.Context, pub logging.Publisher, topic string, recovered any) {
	publish(ctx, pub, logging.Event{
		Type:     EventHandlerPanic,
		Actor:    logging.EntityRef{ID: topic, Kind: logging.EntityKindSystem},
		Severity: logging.SeverityError,
		Category: logging.CategoryLifecycle,
		Payload:  map[string]any{"recovered": recovered},
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
