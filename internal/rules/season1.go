// Package rules wires the season-1 "dark grid" action handlers into a
// ruleset.Registry. Each handler pairs a validator with an applier the way
// the teacher's market registry pairs a symbol with a Market: registered
// once at startup, looked up read-only afterward.
package rules

import (
	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/ledger"
	"github.com/darkgrid-game/darkgrid-core/internal/market"
	"github.com/darkgrid-game/darkgrid-core/internal/ruleset"
)

// Season1DarkGrid is the ruleset version string recorded on the world row.
const Season1DarkGrid = "season1_dark_grid"

// RegisterSeason1 installs the work/list_item/buy_item/cancel_listing
// handlers into r.
func RegisterSeason1(r *ruleset.Registry) error {
	handlers := map[string]ruleset.Handler{
		"work":           {Validator: validateWork, Applier: applyWork},
		"list_item":      {Validator: validateListItem, Applier: applyListItem},
		"buy_item":       {Validator: validateBuyItem, Applier: applyBuyItem},
		"cancel_listing": {Validator: validateCancelListing, Applier: applyCancelListing},
	}
	for actionType, h := range handlers {
		if err := r.Register(actionType, h); err != nil {
			return err
		}
	}
	return nil
}

func validateWork(ruleset.Context, map[string]any) error { return nil }

func applyWork(ctx ruleset.Context, payload map[string]any) (map[string]any, error) {
	reward := int64(100)
	if r, ok := payload["reward"]; ok {
		n, ok := toInt64(r)
		if !ok {
			return nil, apperr.Validationf("reward must be numeric")
		}
		reward = n
	}
	balance, err := ledger.AdjustBalance(ctx.Sess, ctx.ActorID, reward)
	if err != nil {
		return nil, err
	}
	subject := ctx.ActorID
	if _, err := events.Record(ctx.Sess, ctx.Bcast, ctx.Tick, "action.work", &subject, map[string]any{
		"reward":  reward,
		"balance": balance,
	}); err != nil {
		return nil, apperr.Internalf(err, "record event")
	}
	return map[string]any{"balance": balance}, nil
}

func validateListItem(_ ruleset.Context, payload map[string]any) error {
	if _, ok := payload["item_type"]; !ok {
		return apperr.Validationf("item_type and price_amp required")
	}
	if _, ok := payload["price_amp"]; !ok {
		return apperr.Validationf("item_type and price_amp required")
	}
	price, ok := toInt64(payload["price_amp"])
	if !ok || price <= 0 {
		return apperr.Validationf("price must be positive")
	}
	return nil
}

func applyListItem(ctx ruleset.Context, payload map[string]any) (map[string]any, error) {
	itemType, _ := payload["item_type"].(string)
	price, _ := toInt64(payload["price_amp"])
	attrs, _ := payload["item_attrs"].(map[string]any)

	listing, err := market.CreateListing(ctx.Sess, ctx.ActorID, itemType, attrs, price, ctx.Tick)
	if err != nil {
		return nil, err
	}
	subject := listing.ID
	if _, err := events.Record(ctx.Sess, ctx.Bcast, ctx.Tick, "market.listing_created", &subject, map[string]any{
		"item_type": listing.ItemType,
		"price_amp": listing.PriceAmp,
	}); err != nil {
		return nil, apperr.Internalf(err, "record event")
	}
	return map[string]any{"listing_id": listing.ID}, nil
}

func validateBuyItem(_ ruleset.Context, payload map[string]any) error {
	if _, ok := payload["listing_id"]; !ok {
		return apperr.Validationf("listing_id required")
	}
	return nil
}

func applyBuyItem(ctx ruleset.Context, payload map[string]any) (map[string]any, error) {
	listingID, _ := payload["listing_id"].(string)
	listing, err := market.BuyListing(ctx.Sess, listingID, ctx.ActorID, ctx.Tick)
	if err != nil {
		return nil, err
	}
	subject := listing.ID
	if _, err := events.Record(ctx.Sess, ctx.Bcast, ctx.Tick, "market.listing_filled", &subject, map[string]any{
		"buyer_id": ctx.ActorID,
	}); err != nil {
		return nil, apperr.Internalf(err, "record event")
	}
	return map[string]any{"listing_id": listing.ID}, nil
}

func validateCancelListing(_ ruleset.Context, payload map[string]any) error {
	if _, ok := payload["listing_id"]; !ok {
		return apperr.Validationf("listing_id required")
	}
	return nil
}

func applyCancelListing(ctx ruleset.Context, payload map[string]any) (map[string]any, error) {
	listingID, _ := payload["listing_id"].(string)
	listing, err := market.CancelListing(ctx.Sess, listingID, ctx.ActorID, ctx.Tick)
	if err != nil {
		return nil, err
	}
	subject := listing.ID
	if _, err := events.Record(ctx.Sess, ctx.Bcast, ctx.Tick, "market.listing_cancelled", &subject, map[string]any{}); err != nil {
		return nil, apperr.Internalf(err, "record event")
	}
	return map[string]any{"listing_id": listing.ID}, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
