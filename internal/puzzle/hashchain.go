// Package puzzle verifies the hash-chain proof-of-work payload a currency
// packet encodes: find a nonce whose SHA-256 of "<seed>:<nonce>" has the
// payload's target prefix, to a required difficulty.
package puzzle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Verify checks solution against payload and, if correct, returns the
// reward in mAMP. ok is false for any malformed payload, malformed
// solution, or failed proof -- callers surface all of these uniformly as
// apperr.Domainf("invalid solution").
func Verify(payload, solution map[string]any) (rewardMamp int64, ok bool) {
	if kind, _ := payload["type"].(string); kind != "hash-chain" {
		return 0, false
	}
	difficulty, ok := intField(payload["difficulty"])
	if !ok {
		return 0, false
	}
	target, ok := payload["target_prefix"].(string)
	if !ok {
		return 0, false
	}
	nonce, ok := solution["nonce"].(string)
	if !ok {
		return 0, false
	}
	seed, ok := payload["seed"].(string)
	if !ok {
		return 0, false
	}

	digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", seed, nonce)))
	hexDigest := hex.EncodeToString(digest[:])

	prefix := target
	if int(difficulty) < len(prefix) {
		prefix = prefix[:difficulty]
	}
	if len(hexDigest) < len(prefix) || hexDigest[:len(prefix)] != prefix {
		return 0, false
	}

	reward, ok := intField(payload["reward_mamp"])
	if !ok || reward < 0 {
		return 0, false
	}
	return reward, true
}

// intField reads a JSON-decoded numeric field (float64 after
// encoding/json.Unmarshal into map[string]any) as an int64.
func intField(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
