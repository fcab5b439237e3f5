package repository

import (
	"context"
	"fmt"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/infrastructure/repository/entity"
	"caption-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCaptionEventRepository implements CaptionEventRepository using MongoDB
type MongoCaptionEventRepository struct {
	collection *mongo.Collection
}

// NewMongoCaptionEventRepository creates a new MongoDB caption event repository
func NewMongoCaptionEventRepository(db *mongo.Database) ports.CaptionEventRepository {
	return &MongoCaptionEventRepository{
		collection: db.Collection(CaptionEventsCollection),
	}
}

// CreateEvent inserts a caption event and fills in its ID
func (r *MongoCaptionEventRepository) CreateEvent(ctx context.Context, event *domain.CaptionEvent) error {
	doc := entity.MongoCaptionEventDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create caption event: %w", err)
	}

	event.ID = doc.ID.Hex()
	event.CreatedAt = doc.CreatedAt
	return nil
}

// DeleteEventsByShop removes every event of a shop
func (r *MongoCaptionEventRepository) DeleteEventsByShop(ctx context.Context, shop string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shop": shop})
	if err != nil {
		return 0, fmt.Errorf("failed to delete caption events: %w", err)
	}
	return result.DeletedCount, nil
}

// CountEvents counts events of a shop, or all events when shop is empty
func (r *MongoCaptionEventRepository) CountEvents(ctx context.Context, shop string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, shopFilter(shop))
	if err != nil {
		return 0, fmt.Errorf("failed to count caption events: %w", err)
	}
	return count, nil
}

// ListEvents returns one page of events, newest first
func (r *MongoCaptionEventRepository) ListEvents(ctx context.Context, shop string, skip, limit int64) ([]*domain.CaptionEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, shopFilter(shop), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list caption events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*domain.CaptionEvent{}
	for cursor.Next(ctx) {
		var doc entity.MongoCaptionEventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode caption event: %w", err)
		}
		events = append(events, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return events, nil
}

func shopFilter(shop string) bson.M {
	if shop == "" {
		return bson.M{}
	}
	return bson.M{"shop": shop}
}
