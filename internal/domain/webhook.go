package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Topic is the closed set of webhook topics the app subscribes to
type Topic int

const (
	TopicUnknown Topic = iota
	TopicProductsCreate
	TopicProductsUpdate
	TopicCustomersDataRequest
	TopicCustomersRedact
	TopicShopRedact
)

var topicNames = map[Topic]string{
	TopicProductsCreate:       "products/create",
	TopicProductsUpdate:       "products/update",
	TopicCustomersDataRequest: "customers/data_request",
	TopicCustomersRedact:      "customers/redact",
	TopicShopRedact:           "shop/redact",
}

// ParseTopic maps a platform topic string to a Topic; unrecognized strings
// become TopicUnknown
func ParseTopic(s string) Topic {
	for t, name := range topicNames {
		if name == s {
			return t
		}
	}
	return TopicUnknown
}

func (t Topic) String() string {
	if name, ok := topicNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the platform topic string
func (t Topic) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsCompliance reports whether t is one of the mandatory privacy topics
func (t Topic) IsCompliance() bool {
	return t == TopicCustomersDataRequest || t == TopicCustomersRedact || t == TopicShopRedact
}

// IsProduct reports whether t carries a product payload
func (t Topic) IsProduct() bool {
	return t == TopicProductsCreate || t == TopicProductsUpdate
}

// WebhookEvent represents a verified inbound webhook
type WebhookEvent struct {
	ID       string    `json:"id"`
	Topic    Topic     `json:"topic"`
	Shop     string    `json:"shop"`
	Payload  []byte    `json:"payload"`
	Verified bool      `json:"verified"`
	Received time.Time `json:"received"`
}

// ProductPayload is the subset of a product webhook body the captioner reads
type ProductPayload struct {
	ID     FlexibleID     `json:"id"`
	Title  string         `json:"title"`
	Vendor string         `json:"vendor"`
	Images []ProductImage `json:"images"`
}

// ProductImage is one entry of a product's images array
type ProductImage struct {
	ID  FlexibleID `json:"id"`
	Src string     `json:"src"`
}

// FirstImage returns the first image with a source URL, if the payload has one
func (p *ProductPayload) FirstImage() (ProductImage, bool) {
	if len(p.Images) == 0 || p.Images[0].Src == "" {
		return ProductImage{}, false
	}
	return p.Images[0], true
}

// FlexibleID accepts both numeric and string JSON ids
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexibleID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = FlexibleID(s)
	return nil
}

// Uint64 parses the id, returning 0 when it is not numeric
func (f FlexibleID) Uint64() uint64 {
	n, err := strconv.ParseUint(string(f), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// WebhookRegistration is one subscription the registrar creates
type WebhookRegistration struct {
	Topic   Topic
	Address string
}

// RegistrationResult is the outcome of registering one topic
type RegistrationResult struct {
	Topic     Topic  `json:"topic"`
	Address   string `json:"address"`
	WebhookID uint64 `json:"webhook_id,omitempty"`
	Err       error  `json:"-"`
}

// OK reports whether the registration succeeded
func (r RegistrationResult) OK() bool {
	return r.Err == nil
}

// Subscription is a webhook subscription as reported by the platform
type Subscription struct {
	ID        uint64     `json:"id"`
	Topic     string     `json:"topic"`
	Address   string     `json:"address"`
	Format    string     `json:"format"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
