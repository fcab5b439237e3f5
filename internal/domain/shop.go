package domain

import "time"

// Plan is the billing plan a shop is subscribed to
type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanStarter Plan = "starter"
	PlanGrowth  Plan = "growth"
	PlanPro     Plan = "pro"
)

// Valid reports whether p is one of the known plans
func (p Plan) Valid() bool {
	switch p {
	case PlanTrial, PlanStarter, PlanGrowth, PlanPro:
		return true
	}
	return false
}

// Shop represents one merchant installation of the app
type Shop struct {
	ID              string    `json:"id"`
	Domain          string    `json:"domain"`
	AccessToken     string    `json:"-"` // Plaintext only after the service decrypts it
	Scopes          []string  `json:"scopes"`
	Plan            Plan      `json:"plan"`
	BillingCustomer *string   `json:"billing_customer,omitempty"`
	QuotaUsed       int64     `json:"quota_used"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
