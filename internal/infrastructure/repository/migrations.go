package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names the application relies on
const (
	ShopDomainIndex       = "domain_unique"
	ShopStripeIndex       = "stripeId"
	CaptionEventShopIndex = "shop_createdAt"
)

// Migrate creates the indexes the repositories depend on. It is run once per
// deployment by cmd/migrate and is safe to re-run.
func Migrate(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ShopsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "domain", Value: 1}},
			Options: options.Index().SetName(ShopDomainIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "stripeId", Value: 1}},
			Options: options.Index().SetName(ShopStripeIndex).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shop indexes: %w", err)
	}

	_, err = db.Collection(CaptionEventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName(CaptionEventShopIndex),
	})
	if err != nil {
		return fmt.Errorf("failed to create caption event indexes: %w", err)
	}

	return nil
}

// CheckSchema fails when Migrate has not been run against db
func CheckSchema(ctx context.Context, db *mongo.Database) error {
	cursor, err := db.Collection(ShopsCollection).Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shop indexes: %w", err)
	}
	defer cursor.Close(ctx)

	var indexes []bson.M
	if err := cursor.All(ctx, &indexes); err != nil {
		return fmt.Errorf("failed to decode shop indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx["name"] == ShopDomainIndex {
			return nil
		}
	}
	return fmt.Errorf("index %s.%s missing: run cmd/migrate first", ShopsCollection, ShopDomainIndex)
}
