package logging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"typing-battle/client/logging"
	"typing-battle/client/logging/sinks"
)

func TestRouterStampsTimeAndFansOut(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := sinks.NewMemorySink()
	second := sinks.NewMemorySink()
	router := logging.NewRouter(logging.ClockFunc(func() time.Time { return stamp }), logging.SeverityDebug, []logging.NamedSink{
		{Name: "first", Sink: first},
		{Name: "second", Sink: second},
	})

	router.Publish(context.Background(), logging.Event{Type: "gameplay.word_matched", Severity: logging.SeverityInfo})

	for _, sink := range []*sinks.MemorySink{first, second} {
		events := sink.Events()
		if len(events) != 1 {
			t.Fatalf("expected one event per sink, got %d", len(events))
		}
		if !events[0].Time.Equal(stamp) {
			t.Fatalf("expected clock stamp %v, got %v", stamp, events[0].Time)
		}
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.SeverityWarn, []logging.NamedSink{{Name: "memory", Sink: sink}})

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "c", Severity: logging.SeverityError})

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "c" {
		t.Fatalf("expected only the error event, got %v", events)
	}
	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

type failingSink struct{}

func (failingSink) Write(logging.Event) error { return errors.New("disk full") }
func (failingSink) Close(context.Context) error {
	return nil
}

func TestRouterSurvivesSinkFailure(t *testing.T) {
	healthy := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.SeverityDebug, []logging.NamedSink{
		{Name: "broken", Sink: failingSink{}},
		{Name: "memory", Sink: healthy},
	})

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})

	if len(healthy.Events()) != 1 {
		t.Fatalf("expected the healthy sink to receive the event")
	}
}

func TestClosedRouterDropsEvents(t *testing.T) {
	sink := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.SeverityDebug, []logging.NamedSink{{Name: "memory", Sink: sink}})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityInfo})

	if len(sink.Events()) != 0 {
		t.Fatalf("expected no events after close, got %d", len(sink.Events()))
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestWithFieldsDecoratesWithoutOverwriting(t *testing.T) {
	var captured []logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})
	decorated := logging.WithFields(base, map[string]any{"session": "s1", "shard": 2})

	decorated.Publish(context.Background(), logging.Event{
		Type:  "a",
		Extra: map[string]any{"shard": 7},
	})

	if len(captured) != 1 {
		t.Fatalf("expected one event, got %d", len(captured))
	}
	extra := captured[0].Extra
	if extra["session"] != "s1" {
		t.Fatalf("expected decorated field, got %v", extra)
	}
	if extra["shard"] != 7 {
		t.Fatalf("expected existing field preserved, got %v", extra["shard"])
	}
}
