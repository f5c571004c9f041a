package store

import (
	"fmt"

	"github.com/darkgrid-game/darkgrid-core/internal/domain"
)

// GetWorld returns the singleton world row, if it has been created.
func (sess *Session) GetWorld() (domain.World, bool, error) {
	return getJSON[domain.World](sess, worldKey())
}

// PutWorld persists the singleton world row.
func (sess *Session) PutWorld(w domain.World) error {
	return sess.put(worldKey(), w)
}

// GetPlayer fetches a player by id.
func (sess *Session) GetPlayer(id string) (domain.Player, bool, error) {
	return getJSON[domain.Player](sess, playerKey(id))
}

// GetPlayerByHandle resolves a player via the unique handle index.
func (sess *Session) GetPlayerByHandle(handle string) (domain.Player, bool, error) {
	id, ok, err := getJSON[string](sess, playerHandleKey(handle))
	if err != nil || !ok {
		return domain.Player{}, false, err
	}
	return sess.GetPlayer(id)
}

// GetPlayerByTokenHash resolves a player via the unique token-hash index.
// Used by bearer authentication (spec §6).
func (sess *Session) GetPlayerByTokenHash(tokenHash string) (domain.Player, bool, error) {
	id, ok, err := getJSON[string](sess, playerTokenKey(tokenHash))
	if err != nil || !ok {
		return domain.Player{}, false, err
	}
	return sess.GetPlayer(id)
}

// PutPlayer persists a player and keeps the handle/token indexes in sync.
func (sess *Session) PutPlayer(p domain.Player) error {
	if err := sess.put(playerKey(p.ID), p); err != nil {
		return err
	}
	if err := sess.put(playerHandleKey(p.Handle), p.ID); err != nil {
		return err
	}
	if err := sess.put(playerTokenKey(p.TokenHash), p.ID); err != nil {
		return err
	}
	return nil
}

// ListPlayers returns every player, ordered by id.
func (sess *Session) ListPlayers() ([]domain.Player, error) {
	var out []domain.Player
	err := scanPrefix[domain.Player](sess, playerPrefix(), func(_ []byte, p domain.Player) bool {
		out = append(out, p)
		return true
	})
	return out, err
}

// GetEntity fetches an entity by id.
func (sess *Session) GetEntity(id string) (domain.Entity, bool, error) {
	return getJSON[domain.Entity](sess, entityKey(id))
}

// PutEntity persists an entity.
func (sess *Session) PutEntity(e domain.Entity) error {
	return sess.put(entityKey(e.ID), e)
}

// ListEntities returns entities filtered by optional owner and type.
func (sess *Session) ListEntities(ownerID, entityType string) ([]domain.Entity, error) {
	var out []domain.Entity
	err := scanPrefix[domain.Entity](sess, []byte(prefixEntity), func(_ []byte, e domain.Entity) bool {
		if ownerID != "" && (e.OwnerID == nil || *e.OwnerID != ownerID) {
			return true
		}
		if entityType != "" && e.Type != entityType {
			return true
		}
		out = append(out, e)
		return true
	})
	return out, err
}

// DeleteEntity removes an entity. Used only by admin world reset.
func (sess *Session) DeleteEntity(id string) error {
	return sess.del(entityKey(id))
}

// PutAction inserts an action keyed for received-order iteration.
func (sess *Session) PutAction(a domain.Action) error {
	return sess.put(actionKey(a.Tick, a.ReceivedAt, a.ID), a)
}

// ActionsForTick returns every action submitted at tick, ordered by
// received-at ascending with id as the stable tie-breaker (the key
// encoding guarantees this ordering directly).
func (sess *Session) ActionsForTick(tick uint32) ([]domain.Action, error) {
	var out []domain.Action
	err := scanPrefix[domain.Action](sess, actionTickPrefix(tick), func(_ []byte, a domain.Action) bool {
		out = append(out, a)
		return true
	})
	return out, err
}

// DeleteAllActions removes every action at every tick. Used only by admin
// world reset.
func (sess *Session) DeleteAllActions() error {
	var keys [][]byte
	err := scanPrefix[domain.Action](sess, []byte(prefixAction), func(key []byte, _ domain.Action) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := sess.del(k); err != nil {
			return err
		}
	}
	return nil
}

// PutEvent inserts an event keyed for (tick, created_at) iteration.
func (sess *Session) PutEvent(e domain.Event) error {
	return sess.put(eventKey(e.Tick, e.CreatedAt, e.ID), e)
}

// EventsSince returns events with tick >= sinceTick, ordered by
// (tick, created_at) ascending.
func (sess *Session) EventsSince(sinceTick uint32) ([]domain.Event, error) {
	var out []domain.Event
	err := scanPrefix[domain.Event](sess, eventPrefix(), func(_ []byte, e domain.Event) bool {
		if e.Tick >= sinceTick {
			out = append(out, e)
		}
		return true
	})
	return out, err
}

// DeleteAllEvents removes every event. Used only by admin world reset.
func (sess *Session) DeleteAllEvents() error {
	var keys [][]byte
	err := scanPrefix[domain.Event](sess, eventPrefix(), func(key []byte, _ domain.Event) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := sess.del(k); err != nil {
			return err
		}
	}
	return nil
}

// GetListing fetches a market listing by id.
func (sess *Session) GetListing(id string) (domain.MarketListing, bool, error) {
	return getJSON[domain.MarketListing](sess, listingKey(id))
}

// PutListing persists a market listing.
func (sess *Session) PutListing(l domain.MarketListing) error {
	return sess.put(listingKey(l.ID), l)
}

// ListListings returns listings filtered by optional status/seller/item
// type, ordered by created_tick ascending (§4.5).
func (sess *Session) ListListings(status domain.MarketStatus, sellerID, itemType string) ([]domain.MarketListing, error) {
	var out []domain.MarketListing
	err := scanPrefix[domain.MarketListing](sess, listingPrefix(), func(_ []byte, l domain.MarketListing) bool {
		if status != "" && l.Status != status {
			return true
		}
		if sellerID != "" && l.SellerID != sellerID {
			return true
		}
		if itemType != "" && l.ItemType != itemType {
			return true
		}
		out = append(out, l)
		return true
	})
	if err != nil {
		return nil, err
	}
	sortListingsByCreatedTick(out)
	return out, nil
}

func sortListingsByCreatedTick(listings []domain.MarketListing) {
	for i := 1; i < len(listings); i++ {
		for j := i; j > 0 && listings[j-1].CreatedTick > listings[j].CreatedTick; j-- {
			listings[j-1], listings[j] = listings[j], listings[j-1]
		}
	}
}

// DeleteAllListings removes every market listing. Used only by admin world reset.
func (sess *Session) DeleteAllListings() error {
	var keys [][]byte
	err := scanPrefix[domain.MarketListing](sess, listingPrefix(), func(key []byte, _ domain.MarketListing) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := sess.del(k); err != nil {
			return err
		}
	}
	return nil
}

// GetPacket fetches a currency packet by id.
func (sess *Session) GetPacket(id string) (domain.CurrencyPacket, bool, error) {
	return getJSON[domain.CurrencyPacket](sess, packetKey(id))
}

// PutPacket persists a currency packet.
func (sess *Session) PutPacket(p domain.CurrencyPacket) error {
	return sess.put(packetKey(p.ID), p)
}

// ListPacketsByOwner returns every packet owned by ownerID.
func (sess *Session) ListPacketsByOwner(ownerID string) ([]domain.CurrencyPacket, error) {
	var out []domain.CurrencyPacket
	err := scanPrefix[domain.CurrencyPacket](sess, packetPrefix(), func(_ []byte, p domain.CurrencyPacket) bool {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
		return true
	})
	return out, err
}

// DeleteAllPackets removes every currency packet. Used only by admin world reset.
func (sess *Session) DeleteAllPackets() error {
	var keys [][]byte
	err := scanPrefix[domain.CurrencyPacket](sess, packetPrefix(), func(key []byte, _ domain.CurrencyPacket) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := sess.del(k); err != nil {
			return err
		}
	}
	return nil
}

// GetReplayRow fetches the replay_log row for tick.
func (sess *Session) GetReplayRow(tick uint32) (domain.ReplayRow, bool, error) {
	return getJSON[domain.ReplayRow](sess, replayKey(tick))
}

// PutReplayRow appends a replay_log row. Callers must ensure at most one
// row per tick is ever written (the key is the tick itself, so a second
// write at the same tick silently overwrites rather than conflicting --
// callers enforce the append-only invariant by construction).
func (sess *Session) PutReplayRow(r domain.ReplayRow) error {
	return sess.put(replayKey(r.Tick), r)
}

// ReplayRange returns rows with tick in [start, end], ordered by tick.
func (sess *Session) ReplayRange(start, end uint32) ([]domain.ReplayRow, error) {
	var out []domain.ReplayRow
	err := scanPrefix[domain.ReplayRow](sess, replayPrefix(), func(_ []byte, r domain.ReplayRow) bool {
		if r.Tick >= start && r.Tick <= end {
			out = append(out, r)
		}
		return true
	})
	return out, err
}

// DeleteAllReplayRows removes the entire replay log. Used only by admin
// world reset.
func (sess *Session) DeleteAllReplayRows() error {
	var keys [][]byte
	err := scanPrefix[domain.ReplayRow](sess, replayPrefix(), func(key []byte, _ domain.ReplayRow) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := sess.del(k); err != nil {
			return err
		}
	}
	return nil
}

// PlayerLockKey builds the logical row-lock key for a player id, used with
// Session.Lock by the ledger.
func PlayerLockKey(id string) string { return fmt.Sprintf("player:%s", id) }

// ListingLockKey builds the logical row-lock key for a listing id.
func ListingLockKey(id string) string { return fmt.Sprintf("listing:%s", id) }

// PacketLockKey builds the logical row-lock key for a packet id.
func PacketLockKey(id string) string { return fmt.Sprintf("packet:%s", id) }

// WorldLockKey is the logical row-lock key for the singleton world row,
// used to serialize concurrent advance_tick calls (§5).
func WorldLockKey() string { return "world" }
