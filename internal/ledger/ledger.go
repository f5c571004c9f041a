// Package ledger owns every balance-mutating operation on Player rows and
// CurrencyPacket rows. Every method that changes an existing row locks it
// for the lifetime of the session it is given; reads and the insert of a
// new packet take no lock. Callers own the session's lifetime (commit or
// rollback).
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/domain"
	"github.com/darkgrid-game/darkgrid-core/internal/puzzle"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
)

// GetBalance returns a player's current balance in mAMP.
func GetBalance(sess *store.Session, playerID string) (int64, error) {
	p, ok, err := sess.GetPlayer(playerID)
	if err != nil {
		return 0, apperr.Internalf(err, "load player %s", playerID)
	}
	if !ok {
		return 0, apperr.NotFoundf("player not found")
	}
	return p.BalanceMamp, nil
}

// Transfer moves amount mAMP from sender to recipient. Both rows are locked
// in id-ascending order so two transfers in opposite directions can never
// deadlock.
func Transfer(sess *store.Session, senderID, recipientID string, amount int64) error {
	if amount <= 0 {
		return apperr.Validationf("transfer amount must be positive")
	}
	first, second := senderID, recipientID
	if second < first {
		first, second = second, first
	}
	sess.Lock(store.PlayerLockKey(first))
	sess.Lock(store.PlayerLockKey(second))

	sender, ok, err := sess.GetPlayer(senderID)
	if err != nil {
		return apperr.Internalf(err, "load sender")
	}
	if !ok {
		return apperr.Domainf("invalid player")
	}
	recipient, ok, err := sess.GetPlayer(recipientID)
	if err != nil {
		return apperr.Internalf(err, "load recipient")
	}
	if !ok {
		return apperr.Domainf("invalid player")
	}
	if sender.BalanceMamp < amount {
		return apperr.Domainf("insufficient balance")
	}
	if senderID == recipientID {
		return nil
	}
	sender.BalanceMamp -= amount
	recipient.BalanceMamp += amount
	if err := sess.PutPlayer(sender); err != nil {
		return apperr.Internalf(err, "save sender")
	}
	if err := sess.PutPlayer(recipient); err != nil {
		return apperr.Internalf(err, "save recipient")
	}
	return nil
}

// AdjustBalance applies delta (positive or negative) to playerID's balance
// and returns the new balance. Rejects any adjustment that would drive the
// balance negative.
func AdjustBalance(sess *store.Session, playerID string, delta int64) (int64, error) {
	sess.Lock(store.PlayerLockKey(playerID))
	p, ok, err := sess.GetPlayer(playerID)
	if err != nil {
		return 0, apperr.Internalf(err, "load player")
	}
	if !ok {
		return 0, apperr.NotFoundf("player not found")
	}
	newBalance := p.BalanceMamp + delta
	if newBalance < 0 {
		return 0, apperr.Domainf("insufficient balance")
	}
	p.BalanceMamp = newBalance
	if err := sess.PutPlayer(p); err != nil {
		return 0, apperr.Internalf(err, "save player")
	}
	return newBalance, nil
}

// MintEncryptedPacket creates a new encrypted currency packet owned by
// ownerID. The packet's payload carries whatever puzzle the caller
// constructed (dev-mode only, see api package).
func MintEncryptedPacket(sess *store.Session, ownerID string, denom domain.Denomination, payload map[string]any, createdTick uint32) (domain.CurrencyPacket, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	packet := domain.CurrencyPacket{
		ID:          uuid.NewString(),
		Denom:       denom,
		Encrypted:   true,
		Payload:     payload,
		OwnerID:     ownerID,
		CreatedTick: createdTick,
	}
	if err := sess.PutPacket(packet); err != nil {
		return domain.CurrencyPacket{}, apperr.Internalf(err, "save packet")
	}
	return packet, nil
}

// ListPackets returns every packet owned by ownerID.
func ListPackets(sess *store.Session, ownerID string) ([]domain.CurrencyPacket, error) {
	packets, err := sess.ListPacketsByOwner(ownerID)
	if err != nil {
		return nil, apperr.Internalf(err, "list packets")
	}
	return packets, nil
}

// DecryptPacket resolves a packet's face value. If it is already decrypted
// this is a no-op lookup that returns the denomination's mAMP multiplier.
// Otherwise solution must satisfy the packet's embedded puzzle; on success
// the packet is marked decrypted, the solution is recorded on it, and the
// reward is credited to ownerID.
func DecryptPacket(sess *store.Session, ownerID, packetID string, solution map[string]any) (int64, error) {
	sess.Lock(store.PacketLockKey(packetID))
	packet, ok, err := sess.GetPacket(packetID)
	if err != nil {
		return 0, apperr.Internalf(err, "load packet")
	}
	if !ok || packet.OwnerID != ownerID {
		return 0, apperr.Domainf("packet not found")
	}
	if !packet.Encrypted {
		return domain.DenominationMultiplier[packet.Denom], nil
	}

	reward, solved := puzzle.Verify(packet.Payload, solution)
	if !solved {
		return 0, apperr.Domainf("invalid solution")
	}

	packet.Encrypted = false
	packet.Payload["solution"] = solution
	packet.Payload["solved_at"] = time.Now().UTC().Format(time.RFC3339)
	if err := sess.PutPacket(packet); err != nil {
		return 0, apperr.Internalf(err, "save packet")
	}

	if _, err := AdjustBalance(sess, ownerID, reward); err != nil {
		return 0, err
	}
	return reward, nil
}
