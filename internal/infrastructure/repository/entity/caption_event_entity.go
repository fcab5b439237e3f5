package entity

import (
	"time"

	"caption-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCaptionEventDoc represents a caption event in MongoDB
type MongoCaptionEventDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Shop      string             `bson:"shop"`
	ProductID string             `bson:"productId"`
	ImageID   string             `bson:"imageId"`
	Alt       string             `bson:"alt"`
	OK        bool               `bson:"ok"`
	Msg       string             `bson:"msg,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCaptionEventDoc) ToDomain() *domain.CaptionEvent {
	return &domain.CaptionEvent{
		ID:        d.ID.Hex(),
		Shop:      d.Shop,
		ProductID: d.ProductID,
		ImageID:   d.ImageID,
		Alt:       d.Alt,
		OK:        d.OK,
		Msg:       d.Msg,
		CreatedAt: d.CreatedAt,
	}
}

// MongoCaptionEventDocFromDomain converts a domain entity to a MongoDB document
func MongoCaptionEventDocFromDomain(event *domain.CaptionEvent) *MongoCaptionEventDoc {
	doc := &MongoCaptionEventDoc{
		Shop:      event.Shop,
		ProductID: event.ProductID,
		ImageID:   event.ImageID,
		Alt:       event.Alt,
		OK:        event.OK,
		Msg:       event.Msg,
		CreatedAt: event.CreatedAt,
	}

	if event.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(event.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
