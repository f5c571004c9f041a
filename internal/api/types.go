package api

import "github.com/darkgrid-game/darkgrid-core/internal/domain"

// worldStateResponse mirrors domain.World for the wire.
type worldStateResponse struct {
	Tick           uint32 `json:"tick"`
	Seed           uint32 `json:"seed"`
	RulesetVersion string `json:"ruleset_version"`
}

func worldResponse(w domain.World) worldStateResponse {
	return worldStateResponse{Tick: w.Tick, Seed: w.Seed, RulesetVersion: w.RulesetVersion}
}

type entityResponse struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	OwnerID *string        `json:"owner_id,omitempty"`
	Pos     map[string]any `json:"pos,omitempty"`
	Attrs   map[string]any `json:"attrs"`
	Version int            `json:"version"`
}

func entityResp(e domain.Entity) entityResponse {
	return entityResponse{ID: e.ID, Type: e.Type, OwnerID: e.OwnerID, Pos: e.Pos, Attrs: e.Attrs, Version: e.Version}
}

type actionSubmission struct {
	Type    string         `json:"type"`
	ActorID string         `json:"actor_id"`
	Payload map[string]any `json:"payload"`
}

type actionSubmissionRequest struct {
	Actions []actionSubmission `json:"actions"`
}

type enqueueResponse struct {
	Accepted []string `json:"accepted"`
	Tick     uint32   `json:"tick"`
}

type listingResponse struct {
	ID          string         `json:"id"`
	SellerID    string         `json:"seller_id"`
	ItemType    string         `json:"item_type"`
	ItemAttrs   map[string]any `json:"item_attrs"`
	PriceAmp    int64          `json:"price_amp"`
	Status      string         `json:"status"`
	CreatedTick uint32         `json:"created_tick"`
	FilledTick  *uint32        `json:"filled_tick,omitempty"`
}

func listingResp(l domain.MarketListing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		SellerID:    l.SellerID,
		ItemType:    l.ItemType,
		ItemAttrs:   l.ItemAttrs,
		PriceAmp:    l.PriceAmp,
		Status:      string(l.Status),
		CreatedTick: l.CreatedTick,
		FilledTick:  l.FilledTick,
	}
}

type marketCreateRequest struct {
	ItemType  string         `json:"item_type"`
	ItemAttrs map[string]any `json:"item_attrs"`
	PriceAmp  int64          `json:"price_amp"`
}

type currencyMetadataResponse struct {
	BaseUnit       string   `json:"base_unit"`
	Denominations  []string `json:"denominations"`
	Lore           string   `json:"lore"`
}

type balanceResponse struct {
	BalanceMamp int64 `json:"balance_mamp"`
}

type transferRequest struct {
	RecipientID string `json:"recipient_id"`
	AmountMamp  int64  `json:"amount_mamp"`
}

type mintEncryptedRequest struct {
	Denom   string         `json:"denom"`
	Payload map[string]any `json:"payload"`
}

type packetResponse struct {
	ID        string         `json:"id"`
	Denom     string         `json:"denom"`
	Encrypted bool           `json:"encrypted"`
	Payload   map[string]any `json:"payload"`
}

func packetResp(p domain.CurrencyPacket) packetResponse {
	return packetResponse{ID: p.ID, Denom: string(p.Denom), Encrypted: p.Encrypted, Payload: p.Payload}
}

type decryptRequest struct {
	PacketID string         `json:"packet_id"`
	Solution map[string]any `json:"solution"`
}

type eventResponse struct {
	ID        string         `json:"id"`
	Tick      uint32         `json:"tick"`
	Kind      string         `json:"kind"`
	SubjectID *string        `json:"subject_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}

func eventResp(e domain.Event) eventResponse {
	return eventResponse{ID: e.ID, Tick: e.Tick, Kind: e.Kind, SubjectID: e.SubjectID, Payload: e.Payload}
}
