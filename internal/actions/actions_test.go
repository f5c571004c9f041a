package actions

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/ruleset"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time                       { return f.at }
func (f fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := fmt.Sprintf("./tmp_test_actions_%s", t.Name())
	os.RemoveAll(dbPath)
	t.Cleanup(func() { os.RemoveAll(dbPath) })

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestEnqueueAcceptsWithinQuota(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	submissions := []Submission{
		{ActorID: "alice", Type: "work"},
		{ActorID: "alice", Type: "work"},
		{ActorID: "bob", Type: "work"},
	}

	accepted, err := Enqueue(sess, 1, submissions, 2)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(accepted) != 3 {
		t.Fatalf("got %d accepted, want 3", len(accepted))
	}
}

func TestEnqueueRejectsWholeBatchOnQuotaViolation(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	submissions := []Submission{
		{ActorID: "alice", Type: "work"},
		{ActorID: "alice", Type: "work"},
		{ActorID: "alice", Type: "work"},
	}

	_, err := Enqueue(sess, 1, submissions, 2)
	if apperr.CodeOf(err) != apperr.Validation {
		t.Fatalf("expected Validation error, got %v", err)
	}

	queued, err := sess.ActionsForTick(1)
	if err != nil {
		t.Fatalf("actions for tick: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("expected no actions persisted when batch is rejected, got %d", len(queued))
	}
}

func TestEnqueuePreservesReceivedOrder(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	submissions := []Submission{
		{ActorID: "alice", Type: "work"},
		{ActorID: "bob", Type: "work"},
		{ActorID: "carol", Type: "work"},
	}

	accepted, err := Enqueue(sess, 1, submissions, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	for i := 1; i < len(accepted); i++ {
		if accepted[i].ReceivedAt <= accepted[i-1].ReceivedAt {
			t.Fatalf("received_at not strictly increasing at index %d", i)
		}
	}

	queued, err := sess.ActionsForTick(1)
	if err != nil {
		t.Fatalf("actions for tick: %v", err)
	}
	if len(queued) != 3 || queued[0].ActorID != "alice" || queued[2].ActorID != "carol" {
		t.Fatalf("unexpected queued order: %+v", queued)
	}
}

func TestApplyDispatchesThroughRegistryInOrder(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	if err := sess.PutPlayer(domain.Player{ID: "alice", Handle: "alice", TokenHash: "tok"}); err != nil {
		t.Fatalf("seed player: %v", err)
	}

	registry := ruleset.New()
	var order []string
	err := registry.Register("noop", ruleset.Handler{
		Validator: func(ruleset.Context, map[string]any) error { return nil },
		Applier: func(ctx ruleset.Context, _ map[string]any) (map[string]any, error) {
			order = append(order, ctx.ActorID)
			return map[string]any{}, nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := Enqueue(sess, 1, []Submission{
		{ActorID: "alice", Type: "noop"},
		{ActorID: "bob", Type: "noop"},
	}, 5); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	bcast := events.NewMemoryBroadcaster()
	applied, err := Apply(sess, bcast, registry, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("got %d applied, want 2", len(applied))
	}
	if len(order) != 2 || order[0] != "alice" || order[1] != "bob" {
		t.Fatalf("unexpected apply order: %v", order)
	}
}

func TestEnqueueStampsReceivedAtFromInjectedClock(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	original := Clock
	Clock = fixedClock{at: fixed}
	defer func() { Clock = original }()

	accepted, err := Enqueue(sess, 1, []Submission{{ActorID: "alice", Type: "work"}}, 5)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if accepted[0].ReceivedAt != fixed.UnixNano() {
		t.Errorf("received_at = %d, want %d (from injected clock)", accepted[0].ReceivedAt, fixed.UnixNano())
	}
}

func TestApplyRejectsUnknownActionType(t *testing.T) {
	st := newTestStore(t)
	sess := st.Begin()
	defer sess.Rollback()

	if _, err := Enqueue(sess, 1, []Submission{{ActorID: "alice", Type: "mystery"}}, 5); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	registry := ruleset.New()
	bcast := events.NewMemoryBroadcaster()
	_, err := Apply(sess, bcast, registry, 1)
	if apperr.CodeOf(err) != apperr.Validation {
		t.Fatalf("expected Validation error for unknown action type, got %v", err)
	}
}
