package ports

import (
	"context"

	"caption-shopify-layer/internal/domain"
)

// EncryptionService encrypts credentials before they are persisted
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// CaptionRequest is sent to the caption worker
type CaptionRequest struct {
	ImageURL string `json:"image_url"`
	Title    string `json:"title,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
}

// CaptionWorker generates alt text for a product image. An empty caption with
// a nil error means the worker answered without usable text.
type CaptionWorker interface {
	Caption(ctx context.Context, req CaptionRequest) (string, error)
}

// CaptionEventPublisher fans caption events out to live subscribers
type CaptionEventPublisher interface {
	Publish(event *domain.CaptionEvent)
}

// CheckoutRequest starts a subscription checkout for a shop
type CheckoutRequest struct {
	Shop       string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// BillingEventKind is the closed set of billing events the app reacts to
type BillingEventKind int

const (
	BillingEventIgnored BillingEventKind = iota
	BillingEventCheckoutCompleted
	BillingEventSubscriptionDeleted
)

// BillingEvent is a verified billing provider event
type BillingEvent struct {
	ID         string
	Kind       BillingEventKind
	Type       string
	Shop       string
	PriceID    string
	CustomerID string
}

// BillingProvider wraps the payment provider
type BillingProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	ParseEvent(payload []byte, signature string) (*BillingEvent, error)
}

// Metrics records application outcomes
type Metrics interface {
	WebhookReceived(topic, outcome string)
	CaptionResult(ok bool)
	RegistrationResult(topic string, ok bool)
	InstallStep(stage string, ok bool)
	BillingEvent(eventType string)
	ObserveCaptionWorker(seconds float64)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) WebhookReceived(string, string)  {}
func (NopMetrics) CaptionResult(bool)              {}
func (NopMetrics) RegistrationResult(string, bool) {}
func (NopMetrics) InstallStep(string, bool)        {}
func (NopMetrics) BillingEvent(string)             {}
func (NopMetrics) ObserveCaptionWorker(float64)    {}
