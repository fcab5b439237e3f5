package entity

import (
	"time"

	"caption-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopDoc represents a shop installation in MongoDB
type MongoShopDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Domain      string             `bson:"domain"`
	AccessToken string             `bson:"accessToken"` // Encrypted
	Scopes      []string           `bson:"scopes"`
	Plan        string             `bson:"plan"`
	StripeID    *string            `bson:"stripeId,omitempty"`
	QuotaUsed   int64              `bson:"quotaUsed"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	plan := domain.Plan(d.Plan)
	if plan == "" {
		plan = domain.PlanTrial
	}
	return &domain.Shop{
		ID:              d.ID.Hex(),
		Domain:          d.Domain,
		AccessToken:     d.AccessToken,
		Scopes:          d.Scopes,
		Plan:            plan,
		BillingCustomer: d.StripeID,
		QuotaUsed:       d.QuotaUsed,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
