// Package actions implements the per-tick action queue: batched intake with
// a per-actor quota, and in-order dispatch through a ruleset.Registry.
package actions

import (
	"time"

	"github.com/google/uuid"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/clock"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/ruleset"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// DefaultPerTickActionLimit is the quota used when a caller doesn't
// override it via config.
const DefaultPerTickActionLimit = 3

// Clock stamps ReceivedAt on enqueue. Tests may swap it for a fake.
var Clock clock.Clock = clock.RealClock{}

// Submission is one caller-provided action awaiting enqueue.
type Submission struct {
	ActorID string
	Type    string
	Payload map[string]any
}

// Enqueue inserts actions for tick, rejecting the whole batch if any single
// actor exceeds perActorLimit within it. Order is preserved: apply order is
// determined later by received-at, assigned here.
func Enqueue(sess *store.Session, tick uint32, submissions []Submission, perActorLimit int) ([]domain.Action, error) {
	counts := make(map[string]int, len(submissions))
	for _, s := range submissions {
		counts[s.ActorID]++
		if counts[s.ActorID] > perActorLimit {
			return nil, apperr.Validationf("action quota exceeded for actor %s", s.ActorID)
		}
	}
	accepted := make([]domain.Action, 0, len(submissions))
	now := Clock.Now()
	for i, s := range submissions {
		payload := s.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		a := domain.Action{
			ID:         uuid.NewString(),
			Tick:       tick,
			ActorID:    s.ActorID,
			Type:       s.Type,
			Payload:    payload,
			ReceivedAt: now.Add(time.Duration(i)).UnixNano(),
		}
		if err := sess.PutAction(a); err != nil {
			return nil, apperr.Internalf(err, "save action")
		}
		accepted = append(accepted, a)
	}
	return accepted, nil
}

// Apply dispatches every action queued for tick, in received-at order,
// through registry. The first validation or application failure aborts the
// whole advance -- the caller rolls the session back.
func Apply(sess *store.Session, bcast events.Broadcaster, registry *ruleset.Registry, tick uint32) ([]domain.AppliedAction, error) {
	queued, err := sess.ActionsForTick(tick)
	if err != nil {
		return nil, apperr.Internalf(err, "load actions for tick %d", tick)
	}
	applied := make([]domain.AppliedAction, 0, len(queued))
	for _, a := range queued {
		handler, ok := registry.Get(a.Type)
		if !ok {
			return nil, apperr.Validationf("unknown action type: %s", a.Type)
		}
		ctx := ruleset.Context{Sess: sess, Bcast: bcast, Tick: tick, ActorID: a.ActorID}
		if err := handler.Validator(ctx, a.Payload); err != nil {
			return nil, err
		}
		result, err := handler.Applier(ctx, a.Payload)
		if err != nil {
			return nil, err
		}
		applied = append(applied, domain.AppliedAction{
			ID:      a.ID,
			Type:    a.Type,
			Payload: a.Payload,
			Result:  result,
		})
	}
	return applied, nil
}
