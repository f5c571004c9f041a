package api

import (
	"github.com/darkgrid-game/darkgrid-core/internal/replay"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

func replayVerifyRange(sess *store.Session, from, to uint32) (bool, error) {
	return replay.VerifyRange(sess, from, to)
}
