// Package market implements the listing state machine: create -> open,
// open -(buy)-> filled, open -(cancel)-> cancelled. Both terminal states are
// final; no listing is ever reopened.
package market

import (
	"github.com/google/uuid"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/ledger"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// CreateListing opens a new listing for sellerID at the current tick.
func CreateListing(sess *store.Session, sellerID, itemType string, itemAttrs map[string]any, priceAmp int64, tick uint32) (domain.MarketListing, error) {
	if priceAmp <= 0 {
		return domain.MarketListing{}, apperr.Validationf("price_amp must be positive")
	}
	if itemAttrs == nil {
		itemAttrs = map[string]any{}
	}
	listing := domain.MarketListing{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		ItemType:    itemType,
		ItemAttrs:   itemAttrs,
		PriceAmp:    priceAmp,
		Status:      domain.StatusOpen,
		CreatedTick: tick,
	}
	if err := sess.PutListing(listing); err != nil {
		return domain.MarketListing{}, apperr.Internalf(err, "save listing")
	}
	return listing, nil
}

// ListListings returns listings filtered by any non-empty selector,
// ordered by created_tick ascending.
func ListListings(sess *store.Session, status domain.MarketStatus, sellerID, itemType string) ([]domain.MarketListing, error) {
	listings, err := sess.ListListings(status, sellerID, itemType)
	if err != nil {
		return nil, apperr.Internalf(err, "list listings")
	}
	return listings, nil
}

// BuyListing transfers priceAmp from buyerID to the seller and marks the
// listing filled. The seller cannot buy their own listing.
func BuyListing(sess *store.Session, listingID, buyerID string, tick uint32) (domain.MarketListing, error) {
	sess.Lock(store.ListingLockKey(listingID))
	listing, ok, err := sess.GetListing(listingID)
	if err != nil {
		return domain.MarketListing{}, apperr.Internalf(err, "load listing")
	}
	if !ok {
		return domain.MarketListing{}, apperr.Domainf("listing not found")
	}
	if listing.Status != domain.StatusOpen {
		return domain.MarketListing{}, apperr.Domainf("listing is not open")
	}
	if listing.SellerID == buyerID {
		return domain.MarketListing{}, apperr.Domainf("cannot buy your own listing")
	}
	if err := ledger.Transfer(sess, buyerID, listing.SellerID, listing.PriceAmp); err != nil {
		return domain.MarketListing{}, err
	}
	listing.Status = domain.StatusFilled
	filledTick := tick
	listing.FilledTick = &filledTick
	if err := sess.PutListing(listing); err != nil {
		return domain.MarketListing{}, apperr.Internalf(err, "save listing")
	}
	return listing, nil
}

// CancelListing withdraws an open listing. Only the seller may cancel it.
func CancelListing(sess *store.Session, listingID, actorID string, tick uint32) (domain.MarketListing, error) {
	sess.Lock(store.ListingLockKey(listingID))
	listing, ok, err := sess.GetListing(listingID)
	if err != nil {
		return domain.MarketListing{}, apperr.Internalf(err, "load listing")
	}
	if !ok {
		return domain.MarketListing{}, apperr.Domainf("listing not found")
	}
	if listing.SellerID != actorID {
		return domain.MarketListing{}, apperr.Domainf("only seller can cancel listing")
	}
	if listing.Status != domain.StatusOpen {
		return domain.MarketListing{}, apperr.Domainf("listing not open")
	}
	listing.Status = domain.StatusCancelled
	filledTick := tick
	listing.FilledTick = &filledTick
	if err := sess.PutListing(listing); err != nil {
		return domain.MarketListing{}, apperr.Internalf(err, "save listing")
	}
	return listing, nil
}
