// Package privacy derives the pseudo-random signatures and opaque bucket
// tokens that stand in for exact coordinates during matching. The scheme is
// the bucketization protocol as built: one-way hashing with a freshness
// salt, not homomorphic encryption or MPC.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SignatureHexLen is the truncated length of one cell signature.
	SignatureHexLen = 16
	// TokenHexLen is the truncated length of one bucket token.
	TokenHexLen = 32
)

// Bucketer derives signatures and bucket tokens. Count and Secret are fixed
// at configuration time; Window scopes the freshness salt so that signatures
// are only comparable within a single derivation window.
type Bucketer struct {
	Count  int
	Secret string
	Window time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewBucketer(count int, secret string, window time.Duration) *Bucketer {
	return &Bucketer{Count: count, Secret: secret, Window: window, now: time.Now}
}

// Signatures derives Count fresh signatures for a cell. Each incorporates
// the cell id, the signature index, and a window-truncated timestamp, so
// successive windows yield uncorrelated signatures even for the same cell.
func (b *Bucketer) Signatures(cellID string) []string {
	ts := b.now()
	if b.Window > 0 {
		ts = ts.Truncate(b.Window)
	}
	out := make([]string, b.Count)
	for i := 0; i < b.Count; i++ {
		salt := fmt.Sprintf("salt_%d_%d", i, ts.UnixMilli())
		out[i] = hashHex(cellID+salt, SignatureHexLen)
	}
	return out
}

// Tokens maps signatures to opaque bucket tokens under the shared secret.
// Deterministic given its inputs; all freshness lives in the signatures.
func (b *Bucketer) Tokens(signatures []string) []string {
	out := make([]string, len(signatures))
	for i, sig := range signatures {
		out[i] = hashHex(sig+b.Secret, TokenHexLen)
	}
	return out
}

// Derive runs the full two-stage pipeline for a cell.
func (b *Bucketer) Derive(cellID string) (signatures, tokens []string) {
	signatures = b.Signatures(cellID)
	return signatures, b.Tokens(signatures)
}

func hashHex(input string, n int) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:n]
}
