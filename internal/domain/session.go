package domain

import "time"

// OAuthStateTTL bounds how long an install may take between redirect and callback
const OAuthStateTTL = 10 * time.Minute

// Session represents a pending OAuth handshake, keyed by its state nonce
type Session struct {
	State     string    `json:"state"`
	Shop      string    `json:"shop"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}
