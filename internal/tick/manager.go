// Package tick wires the action queue, ruleset dispatch, event recording
// and replay chain into the operations the API surface needs: reading
// world state, enqueueing actions, advancing the tick, and the admin world
// reset.
package tick

import (
	"github.com/darkgrid-game/darkgrid-core/internal/actions"
	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/replay"
	"github.com/darkgrid-game/darkgrid-core/internal/ruleset"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// Manager owns the tick lifecycle. It holds no state of its own beyond its
// collaborators -- every operation runs in the session it is given.
type Manager struct {
	Registry           *ruleset.Registry
	Bcast              events.Broadcaster
	Seed               uint32
	Ruleset            string
	PerTickActionLimit int
}

// EnsureWorld returns the singleton world row, creating it at tick 0 on
// first access.
func (m *Manager) EnsureWorld(sess *store.Session) (domain.World, error) {
	sess.Lock(store.WorldLockKey())
	w, ok, err := sess.GetWorld()
	if err != nil {
		return domain.World{}, apperr.Internalf(err, "load world")
	}
	if ok {
		return w, nil
	}
	w = domain.World{ID: 1, Tick: 0, Seed: m.Seed, RulesetVersion: m.Ruleset}
	if err := sess.PutWorld(w); err != nil {
		return domain.World{}, apperr.Internalf(err, "create world")
	}
	return w, nil
}

// GetWorldState returns the current world row.
func (m *Manager) GetWorldState(sess *store.Session) (domain.World, error) {
	return m.EnsureWorld(sess)
}

// EnqueueActions enqueues a batch of actions at the current tick.
func (m *Manager) EnqueueActions(sess *store.Session, submissions []actions.Submission) ([]domain.Action, error) {
	world, err := m.EnsureWorld(sess)
	if err != nil {
		return nil, err
	}
	limit := m.PerTickActionLimit
	if limit <= 0 {
		limit = actions.DefaultPerTickActionLimit
	}
	return actions.Enqueue(sess, world.Tick, submissions, limit)
}

// AdvanceResult is what AdvanceTick reports back to its caller.
type AdvanceResult struct {
	Tick    uint32                 `json:"tick"`
	Applied []domain.AppliedAction `json:"applied"`
}

// AdvanceTick applies every action queued at the current tick, increments
// the world's tick counter, records a tick.advance event, and appends the
// new tick's replay row. All of it happens in sess: any failure leaves the
// tick unchanged once the caller rolls back.
func (m *Manager) AdvanceTick(sess *store.Session) (AdvanceResult, error) {
	world, err := m.EnsureWorld(sess)
	if err != nil {
		return AdvanceResult{}, err
	}
	currentTick := world.Tick

	applied, err := actions.Apply(sess, m.Bcast, m.Registry, currentTick)
	if err != nil {
		return AdvanceResult{}, err
	}

	world.Tick++
	if err := sess.PutWorld(world); err != nil {
		return AdvanceResult{}, apperr.Internalf(err, "save world")
	}

	if _, err := events.Record(sess, m.Bcast, world.Tick, "tick.advance", nil, map[string]any{"tick": world.Tick}); err != nil {
		return AdvanceResult{}, apperr.Internalf(err, "record tick.advance")
	}

	snapshot, err := replay.Snapshot(sess, world.Tick)
	if err != nil {
		return AdvanceResult{}, err
	}
	prevHash, err := replay.PreviousHash(sess, world.Tick)
	if err != nil {
		return AdvanceResult{}, err
	}
	if _, err := replay.Append(sess, world.Tick, snapshot, applied, prevHash); err != nil {
		return AdvanceResult{}, err
	}

	return AdvanceResult{Tick: world.Tick, Applied: applied}, nil
}

// ResetWorld deletes every event, action, listing, packet, replay row and
// entity and writes a fresh tick-0 world row; players and their balances
// are kept. Used only by the dev-mode admin reset endpoint.
func (m *Manager) ResetWorld(sess *store.Session) (domain.World, error) {
	sess.Lock(store.WorldLockKey())
	if err := sess.DeleteAllEvents(); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset events")
	}
	if err := sess.DeleteAllActions(); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset actions")
	}
	if err := sess.DeleteAllListings(); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset listings")
	}
	if err := sess.DeleteAllPackets(); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset packets")
	}
	if err := sess.DeleteAllReplayRows(); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset replay log")
	}
	entities, err := sess.ListEntities("", "")
	if err != nil {
		return domain.World{}, apperr.Internalf(err, "list entities")
	}
	for _, e := range entities {
		if err := sess.DeleteEntity(e.ID); err != nil {
			return domain.World{}, apperr.Internalf(err, "reset entities")
		}
	}
	world := domain.World{ID: 1, Tick: 0, Seed: m.Seed, RulesetVersion: m.Ruleset}
	if err := sess.PutWorld(world); err != nil {
		return domain.World{}, apperr.Internalf(err, "reset world")
	}
	return world, nil
}
