package events

import (
	"fmt"
	"os"
	"testing"

	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := fmt.Sprintf("./tmp_test_events_%s", t.Name())
	os.RemoveAll(dbPath)
	t.Cleanup(func() { os.RemoveAll(dbPath) })

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRecordPersistsAndPublishes(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	b := NewMemoryBroadcaster()
	var published []any
	unsubscribe := b.Subscribe("events", func(msg any) { published = append(published, msg) })
	defer unsubscribe()

	subject := "alice"
	ev, err := Record(sess, b, 3, "action.work", &subject, map[string]any{"reward": int64(100)})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ev.Kind != "action.work" {
		t.Errorf("kind = %s, want action.work", ev.Kind)
	}

	stored, err := sess.EventsSince(0)
	if err != nil {
		t.Fatalf("events since: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != ev.ID {
		t.Fatalf("event not persisted as expected: %+v", stored)
	}
	if len(published) != 1 {
		t.Errorf("expected 1 published message, got %d", len(published))
	}
}

func TestRecordSurvivesPanickingSubscriber(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	b := NewMemoryBroadcaster()
	unsubscribe := b.Subscribe("events", func(any) { panic("boom") })
	defer unsubscribe()

	_, err := Record(sess, b, 1, "tick.advance", nil, nil)
	if err != nil {
		t.Fatalf("record should not fail due to a panicking subscriber: %v", err)
	}
}

func TestRecordDefaultsNilPayload(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	ev, err := Record(sess, NewMemoryBroadcaster(), 1, "tick.advance", nil, nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ev.Payload == nil {
		t.Errorf("expected payload to default to an empty map, got nil")
	}
}
