// Package webhook – signature verification.
//
// Sites may configure a shared secret; when they do, every delivery must
// carry an HMAC-SHA256 signature over the raw request body in the
// X-Webhook-Signature header. Sites without a secret skip verification
// entirely — that is an explicit opt-out the site operator accepts, traded
// against vendors that cannot sign, not an oversight in this code.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderSignature is the request header carrying the hex-encoded HMAC.
const HeaderSignature = "X-Webhook-Signature"

// VerifySignature reports whether presented is a valid HMAC-SHA256 of body
// under secret.
//
// Rules:
//   - secret empty: verification is skipped, always true.
//   - secret set, presented empty: false (signature required).
//   - presented not valid hex, or wrong length: false, never an error.
//   - otherwise: constant-time comparison of the two MACs.
//
// A "sha256=" prefix (GitHub-style) is tolerated and stripped.
func VerifySignature(body []byte, presented, secret string) bool {
	if secret == "" {
		return true
	}
	presented = strings.TrimSpace(presented)
	presented = strings.TrimPrefix(presented, "sha256=")
	if presented == "" {
		return false
	}
	got, err := hex.DecodeString(presented)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := mac.Sum(nil)

	return hmac.Equal(got, want)
}

// Sign computes the hex HMAC-SHA256 of body under secret. Used by tests and
// by operators generating signatures for replay tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
