// File path: internal/webhook/signature.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/docflow-io/docflow/internal/common"
)

// Verifier checks delivery signatures on inbound webhook payloads. Two keys
// are held so secrets can rotate without dropping deliveries: the sender may
// sign with either while a rotation is in flight.
type Verifier struct {
	PrimaryKey   string
	SecondaryKey string
	// Skip disables verification entirely. Off by default; intended for
	// local development only.
	Skip bool
}

// NewVerifier returns a Verifier over the given rotating keys.
func NewVerifier(primary, secondary string, skip bool) *Verifier {
	return &Verifier{PrimaryKey: primary, SecondaryKey: secondary, Skip: skip}
}

// Verify reports whether signature matches the HMAC-SHA256 of
// deliveryTimestamp + "." + body under either configured key. Binding the
// timestamp into the signed material stops replay of a captured body with a
// fresh timestamp. With no keys configured the payload is rejected.
func (v *Verifier) Verify(body []byte, signature, deliveryTimestamp string) bool {
	if v.Skip {
		common.Logger().Warn("webhook: signature verification skipped")
		return true
	}
	if v.PrimaryKey == "" && v.SecondaryKey == "" {
		common.Logger().Warn("webhook: no signature keys configured, rejecting delivery")
		return false
	}
	if signature == "" {
		return false
	}
	for _, key := range []string{v.PrimaryKey, v.SecondaryKey} {
		if key == "" {
			continue
		}
		if matchSignature(key, body, signature, deliveryTimestamp) {
			return true
		}
	}
	return false
}

func matchSignature(key string, body []byte, signature, deliveryTimestamp string) bool {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(deliveryTimestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
