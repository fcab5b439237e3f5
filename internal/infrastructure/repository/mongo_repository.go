package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/infrastructure/repository/entity"
	"caption-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	ShopsCollection         = "shops"
	CaptionEventsCollection = "caption_events"
)

// MongoShopRepository implements ShopRepository using MongoDB
type MongoShopRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoShopRepository creates a new MongoDB shop repository
func NewMongoShopRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoShopRepository{
		collection: db.Collection(ShopsCollection),
		now:        time.Now,
	}
}

// UpsertShop saves a shop's credential, creating the shop on first install
func (r *MongoShopRepository) UpsertShop(ctx context.Context, shop *domain.Shop) error {
	now := r.now().UTC()
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{
		"$set": bson.M{
			"accessToken": shop.AccessToken,
			"scopes":      shop.Scopes,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"domain":    shop.Domain,
			"plan":      string(domain.PlanTrial),
			"quotaUsed": int64(0),
			"createdAt": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	return nil
}

// GetShop retrieves a shop by domain
func (r *MongoShopRepository) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	err := r.collection.FindOne(ctx, bson.M{"domain": shopDomain}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// LatestShop retrieves the most recently installed shop
func (r *MongoShopRepository) LatestShop(ctx context.Context) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// DeleteShop removes a shop; deleting an unknown shop is not an error
func (r *MongoShopRepository) DeleteShop(ctx context.Context, shopDomain string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"domain": shopDomain})
	if err != nil {
		return 0, fmt.Errorf("failed to delete shop: %w", err)
	}
	return result.DeletedCount, nil
}

// IncrementUsage adds one to the shop's usage counter
func (r *MongoShopRepository) IncrementUsage(ctx context.Context, shopDomain string) error {
	update := bson.M{
		"$inc": bson.M{"quotaUsed": 1},
		"$set": bson.M{"updatedAt": r.now().UTC()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"domain": shopDomain}, update); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// UpdatePlan sets the plan and billing customer of one shop
func (r *MongoShopRepository) UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan, customerID string) error {
	set := bson.M{
		"plan":      string(plan),
		"updatedAt": r.now().UTC(),
	}
	if customerID != "" {
		set["stripeId"] = customerID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"domain": shopDomain}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrShopNotFound
	}
	return nil
}

// ResetPlanByCustomer sets plan on every shop billed to customerID
func (r *MongoShopRepository) ResetPlanByCustomer(ctx context.Context, customerID string, plan domain.Plan) (int64, error) {
	update := bson.M{"$set": bson.M{
		"plan":      string(plan),
		"updatedAt": r.now().UTC(),
	}}
	result, err := r.collection.UpdateMany(ctx, bson.M{"stripeId": customerID}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reset plan: %w", err)
	}
	return result.ModifiedCount, nil
}
