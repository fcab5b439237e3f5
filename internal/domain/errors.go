package domain

import "errors"

var (
	ErrInvalidShopDomain = errors.New("invalid shop domain")
	ErrHandshakeFailed   = errors.New("oauth handshake failed")
	ErrShopNotFound      = errors.New("shop not found")
	ErrInvalidPayload    = errors.New("invalid webhook payload")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrUnknownPrice      = errors.New("unknown price")

	// ErrCaptionWorkerNotConfigured is returned when no caption worker URL is set
	ErrCaptionWorkerNotConfigured = errors.New("caption worker url not configured")
)
