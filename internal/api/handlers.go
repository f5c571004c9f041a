package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/darkgrid-game/darkgrid-core/internal/actions"
	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/ledger"
	"github.com/darkgrid-game/darkgrid-core/internal/market"
)

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, worldResponse(world))
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Begin()
	defer sess.Rollback()

	q := r.URL.Query()
	entities, err := sess.ListEntities(q.Get("owner_id"), q.Get("type"))
	if err != nil {
		respondAppErr(w, apperr.Internalf(err, "list entities"))
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	out := make([]entityResponse, 0, len(entities))
	for _, e := range entities {
		out = append(out, entityResp(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess := s.store.Begin()
	defer sess.Rollback()

	entity, ok, err := sess.GetEntity(id)
	if err != nil {
		respondAppErr(w, apperr.Internalf(err, "load entity"))
		return
	}
	if !ok {
		respondAppErr(w, apperr.NotFoundf("entity not found"))
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, entityResp(entity))
}

func (s *Server) handleSubmitActions(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)

	var req actionSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submissions := make([]actions.Submission, 0, len(req.Actions))
	for _, a := range req.Actions {
		if a.ActorID != playerID {
			respondAppErr(w, apperr.Forbiddenf("actor mismatch"))
			return
		}
		submissions = append(submissions, actions.Submission{ActorID: a.ActorID, Type: a.Type, Payload: a.Payload})
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	accepted, err := s.manager.EnqueueActions(sess, submissions)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}

	ids := make([]string, 0, len(accepted))
	for _, a := range accepted {
		ids = append(ids, a.ID)
	}
	respondJSON(w, http.StatusOK, enqueueResponse{Accepted: ids, Tick: world.Tick})
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sess := s.store.Begin()
	defer sess.Rollback()

	listings, err := market.ListListings(sess, domain.MarketStatus(q.Get("status")), q.Get("seller_id"), q.Get("item_type"))
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, listingResp(l))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	var req marketCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	listing, err := market.CreateListing(sess, playerID, req.ItemType, req.ItemAttrs, req.PriceAmp, world.Tick)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, listingResp(listing))
}

func (s *Server) handleBuyListing(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	listingID := mux.Vars(r)["id"]

	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	listing, err := market.BuyListing(sess, listingID, playerID, world.Tick)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, listingResp(listing))
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	listingID := mux.Vars(r)["id"]

	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	listing, err := market.CancelListing(sess, listingID, playerID, world.Tick)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, listingResp(listing))
}

func (s *Server) handleCurrencyMetadata(w http.ResponseWriter, r *http.Request) {
	denoms := []string{string(domain.DenomMilliAMP), string(domain.DenomKiloAMP), string(domain.DenomMegaAMP), string(domain.DenomGigaAMP)}
	respondJSON(w, http.StatusOK, currencyMetadataResponse{
		BaseUnit:      "mAMP",
		Denominations: denoms,
		Lore:          "AMPs are Anonymous Market Packets, energy siphoned from megacorps and hashed into currency.",
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	sess := s.store.Begin()
	defer sess.Rollback()

	balance, err := ledger.GetBalance(sess, playerID)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{BalanceMamp: balance})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	if err := ledger.Transfer(sess, playerID, req.RecipientID, req.AmountMamp); err != nil {
		respondAppErr(w, err)
		return
	}
	balance, err := ledger.GetBalance(sess, playerID)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{BalanceMamp: balance})
}

func (s *Server) handleMintEncrypted(w http.ResponseWriter, r *http.Request) {
	if !s.devMode {
		respondAppErr(w, apperr.Forbiddenf("mint disabled"))
		return
	}
	playerID, _ := s.playerIDFromContext(r)
	var req mintEncryptedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.GetWorldState(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	packet, err := ledger.MintEncryptedPacket(sess, playerID, domain.Denomination(req.Denom), req.Payload, world.Tick)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, packetResp(packet))
}

func (s *Server) handleListPackets(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	sess := s.store.Begin()
	defer sess.Rollback()

	packets, err := ledger.ListPackets(sess, playerID)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	out := make([]packetResponse, 0, len(packets))
	for _, p := range packets {
		out = append(out, packetResp(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	playerID, _ := s.playerIDFromContext(r)
	var req decryptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	if _, err := ledger.DecryptPacket(sess, playerID, req.PacketID, req.Solution); err != nil {
		respondAppErr(w, err)
		return
	}
	balance, err := ledger.GetBalance(sess, playerID)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{BalanceMamp: balance})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	sinceTick := uint64(0)
	if v := r.URL.Query().Get("since_tick"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			sinceTick = n
		}
	}

	sess := s.store.Begin()
	defer sess.Rollback()

	events, err := sess.EventsSince(uint32(sinceTick))
	if err != nil {
		respondAppErr(w, apperr.Internalf(err, "list events"))
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResp(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdvanceTick(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Begin()
	defer sess.Rollback()

	result, err := s.manager.AdvanceTick(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetWorld(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Begin()
	defer sess.Rollback()

	world, err := s.manager.ResetWorld(sess)
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]uint32{"tick": world.Tick})
}

func (s *Server) handleVerifyReplay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, _ := strconv.ParseUint(q.Get("from"), 10, 32)
	to, _ := strconv.ParseUint(q.Get("to"), 10, 32)

	sess := s.store.Begin()
	defer sess.Rollback()

	valid, err := replayVerifyRange(sess, uint32(from), uint32(to))
	if err != nil {
		respondAppErr(w, err)
		return
	}
	if err := sess.Commit(); err != nil {
		respondAppErr(w, apperr.Internalf(err, "commit"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
