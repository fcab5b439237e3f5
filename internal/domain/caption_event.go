package domain

import "time"

// DefaultCaption is written back when the caption worker returns nothing usable
const DefaultCaption = "product photo"

// CaptionEvent is one attempt to caption a product image and write it back
type CaptionEvent struct {
	ID        string    `json:"id"`
	Shop      string    `json:"shop"`
	ProductID string    `json:"productId"`
	ImageID   string    `json:"imageId"`
	Alt       string    `json:"alt"`
	OK        bool      `json:"ok"`
	Msg       string    `json:"msg,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CaptionEventPage is one page of caption events, newest first
type CaptionEventPage struct {
	Logs  []*CaptionEvent `json:"logs"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
	Count int64           `json:"count"`
	Take  int             `json:"take"`
}
