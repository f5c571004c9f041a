package store

import "fmt"

// Key schema, one flat keyspace partitioned by prefix (same scheme the
// teacher uses for accounts/positions/orders, adapted to this domain's
// tables):
//
//	world               -> World
//	player:<id>          -> Player
//	player_handle:<h>    -> player id (unique index)
//	player_token:<hash>  -> player id (unique index)
//	entity:<id>          -> Entity
//	action:<tick>:<recvNanos>:<id> -> Action
//	event:<tick>:<created>:<id>    -> Event
//	listing:<id>         -> MarketListing
//	packet:<id>          -> CurrencyPacket
//	replay:<tick>        -> ReplayRow

const (
	prefixWorld        = "world"
	prefixPlayer       = "player:"
	prefixPlayerHandle = "player_handle:"
	prefixPlayerToken  = "player_token:"
	prefixEntity       = "entity:"
	prefixAction       = "action:"
	prefixEvent        = "event:"
	prefixListing      = "listing:"
	prefixPacket       = "packet:"
	prefixReplay       = "replay:"
)

func worldKey() []byte { return []byte(prefixWorld) }

func playerKey(id string) []byte { return []byte(prefixPlayer + id) }

func playerHandleKey(handle string) []byte { return []byte(prefixPlayerHandle + handle) }

func playerTokenKey(tokenHash string) []byte { return []byte(prefixPlayerToken + tokenHash) }

func entityKey(id string) []byte { return []byte(prefixEntity + id) }

// actionKey orders actions for a tick by received-at nanos, with id as the
// tie-breaker, which is exactly apply order (§4.7 of the spec).
func actionKey(tick uint32, receivedAtNanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%010d:%020d:%s", prefixAction, tick, receivedAtNanos, id))
}

func actionTickPrefix(tick uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d:", prefixAction, tick))
}

func eventKey(tick uint32, createdAtNanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%010d:%020d:%s", prefixEvent, tick, createdAtNanos, id))
}

func eventPrefix() []byte { return []byte(prefixEvent) }

func listingKey(id string) []byte { return []byte(prefixListing + id) }

func listingPrefix() []byte { return []byte(prefixListing) }

func packetKey(id string) []byte { return []byte(prefixPacket + id) }

func packetPrefix() []byte { return []byte(prefixPacket) }

func playerPrefix() []byte { return []byte(prefixPlayer) }

func replayKey(tick uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefixReplay, tick))
}

func replayPrefix() []byte { return []byte(prefixReplay) }

// prefixUpperBound returns the exclusive upper bound for a prefix scan.
func prefixUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	for i := len(bound) - 1; i >= 0; i-- {
		bound[i]++
		if bound[i] != 0 {
			return bound
		}
	}
	// all 0xff: no upper bound needed in practice for our ascii prefixes.
	return append(bound, 0xff)
}
