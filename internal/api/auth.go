package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
)

type playerIDKey struct{}

// authMiddleware resolves the bearer token to a player id via the store's
// token-hash index and stashes it in the request context. A missing or
// unknown token is an Auth error (401), matching the teacher-pattern 401
// used throughout the ambient error mapping.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondAppErr(w, apperr.Authf("missing bearer token"))
			return
		}

		sess := s.store.Begin()
		defer sess.Rollback()

		sum := sha256.Sum256([]byte(token))
		tokenHash := hex.EncodeToString(sum[:])
		player, found, err := sess.GetPlayerByTokenHash(tokenHash)
		if err != nil {
			respondAppErr(w, apperr.Internalf(err, "auth lookup"))
			return
		}
		if !found {
			respondAppErr(w, apperr.Authf("unknown token"))
			return
		}

		ctx := context.WithValue(r.Context(), playerIDKey{}, player.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
