package network

import (
	"context"

	"typing-battle/client/logging"
)

const (
	// EventConnected is emitted when the transport reports ready.
	EventConnected logging.EventType = "network.connected"
	// EventDisconnected is emitted when the transport closes.
	EventDisconnected logging.EventType = "network.disconnected"
	// EventReconnectScheduled is emitted before a backoff-delayed retry.
	EventReconnectScheduled logging.EventType = "network.reconnect_scheduled"
	// EventReconnectExhausted is emitted when the attempt cap is reached.
	EventReconnectExhausted logging.EventType = "network.reconnect_exhausted"
	// EventProtocolDropped is emitted when an inbound message cannot be decoded.
	EventProtocolDropped logging.EventType = "network.protocol_dropped"
	// EventRequestTimeout is emitted when a pending request expires unanswered.
	EventRequestTimeout logging.EventType = "network.request_timeout"
)

// ClosePayload captures why the transport closed.
type ClosePayload struct {
	Code  int    `json:"code"`
	Clean bool   `json:"clean"`
	Error string `json:"error,omitempty"`
}

// ReconnectPayload captures backoff progression details.
type ReconnectPayload struct {
	Attempt     int   `json:"attempt"`
	MaxAttempts int   `json:"maxAttempts"`
	DelayMillis int64 `json:"delayMillis"`
}

// DropPayload captures a dropped inbound message.
type DropPayload struct {
	MessageType string `json:"messageType,omitempty"`
	Error       string `json:"error,omitempty"`
}

func Connected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
}

func Disconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ClosePayload) {
	severity := logging.SeverityInfo
	if !payload.Clean {
		severity = logging.SeverityWarn
	}
	publish(ctx, pub, logging.Event{
		Type:     EventDisconnected,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func ReconnectScheduled(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ReconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventReconnectScheduled,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func ReconnectExhausted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ReconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventReconnectExhausted,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func ProtocolDropped(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload DropPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventProtocolDropped,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func RequestTimeout(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, requestID uint64) {
	publish(ctx, pub, logging.Event{
		Type:     EventRequestTimeout,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  map[string]uint64{"requestId": requestID},
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
