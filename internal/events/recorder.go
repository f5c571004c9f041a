package events

import (
	"github.com/google/uuid"

	"github.com/darkgrid-game/darkgrid-core/internal/clock"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// Clock stamps CreatedAt on every recorded event. Tests may swap it for a
// fake.
var Clock clock.Clock = clock.RealClock{}

// Record inserts an event row within sess and best-effort publishes it to
// the "events" channel. A publish failure (a panicking subscriber) never
// fails the caller's transaction -- the event row is already written into
// sess once this returns, whether or not anyone was listening, and becomes
// durable when the caller commits.
func Record(sess *store.Session, b Broadcaster, tick uint32, kind string, subjectID *string, payload map[string]any) (domain.Event, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	ev := domain.Event{
		ID:        uuid.NewString(),
		Tick:      tick,
		Kind:      kind,
		SubjectID: subjectID,
		Payload:   payload,
		CreatedAt: Clock.Now().UnixNano(),
	}
	if err := sess.PutEvent(ev); err != nil {
		return domain.Event{}, err
	}
	if b != nil {
		publishSafely(b, ev)
	}
	return ev, nil
}

func publishSafely(b Broadcaster, ev domain.Event) {
	defer func() { _ = recover() }()
	b.Publish("events", ev)
}
