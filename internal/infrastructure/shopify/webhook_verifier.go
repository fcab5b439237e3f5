package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Signature headers, in lookup order
const (
	HeaderHmacSHA256 = "X-Shopify-Hmac-Sha256"
	HeaderSignature  = "X-Signature"
)

// WebhookVerifier checks base64(HMAC-SHA256(body)) signatures
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the shared signing secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign returns the signature the platform would send for body
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body. It must be given the raw
// bytes as received; re-encoded JSON will not verify.
func (v *WebhookVerifier) Verify(body []byte, signature string) bool {
	if signature == "" || len(v.secret) == 0 {
		return false
	}
	expected := v.Sign(body)
	if len(signature) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}
