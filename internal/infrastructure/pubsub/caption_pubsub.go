package pubsub

import (
	"context"
	"fmt"
	"sync"

	"caption-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// CaptionEventChannel represents a subscription channel
type CaptionEventChannel struct {
	ID     string
	Filter *CaptionEventFilter
	Events chan *domain.CaptionEvent
	Done   chan struct{}
	cancel context.CancelFunc
}

// CaptionEventFilter filters caption events
type CaptionEventFilter struct {
	Shop       string // Filter by shop domain
	FailedOnly bool
}

// CaptionPubSub fans caption events out to live dashboard streams
type CaptionPubSub struct {
	mu       sync.RWMutex
	channels map[string]*CaptionEventChannel
	logger   zerolog.Logger
	nextID   int64
}

// NewCaptionPubSub creates a new caption event pub/sub
func NewCaptionPubSub(logger zerolog.Logger) *CaptionPubSub {
	return &CaptionPubSub{
		channels: make(map[string]*CaptionEventChannel),
		logger:   logger,
	}
}

// Subscribe creates a subscription that lives until ctx is cancelled
func (ps *CaptionPubSub) Subscribe(ctx context.Context, filter *CaptionEventFilter) *CaptionEventChannel {
	subCtx, cancel := context.WithCancel(ctx)

	channel := &CaptionEventChannel{
		Filter: filter,
		Events: make(chan *domain.CaptionEvent, 16),
		Done:   make(chan struct{}),
		cancel: cancel,
	}

	ps.mu.Lock()
	id := ps.generateID()
	channel.ID = id
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Debug().
		Str("channelId", id).
		Interface("filter", filter).
		Msg("Caption stream subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel and closes it
func (ps *CaptionPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Debug().
		Str("channelId", channelID).
		Msg("Caption stream subscription removed")
}

// Publish broadcasts an event to all matching subscribers without blocking
func (ps *CaptionPubSub) Publish(event *domain.CaptionEvent) {
	if event == nil {
		return
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	publishedCount := 0
	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
			publishedCount++
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping caption event")
		}
	}

	if publishedCount > 0 {
		ps.logger.Debug().
			Str("shop", event.Shop).
			Bool("ok", event.OK).
			Int("subscribers", publishedCount).
			Msg("Published caption event to subscribers")
	}
}

func matchesFilter(event *domain.CaptionEvent, filter *CaptionEventFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Shop != "" && event.Shop != filter.Shop {
		return false
	}
	if filter.FailedOnly && event.OK {
		return false
	}
	return true
}

// generateID must be called with ps.mu held
func (ps *CaptionPubSub) generateID() string {
	ps.nextID++
	return fmt.Sprintf("channel-%d", ps.nextID)
}

// SubscriberCount returns the number of active subscriptions
func (ps *CaptionPubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}

// Close ends every subscription; streams reading from them return
func (ps *CaptionPubSub) Close() {
	ps.mu.RLock()
	ids := make([]string, 0, len(ps.channels))
	for id := range ps.channels {
		ids = append(ids, id)
	}
	ps.mu.RUnlock()

	for _, id := range ids {
		ps.Unsubscribe(id)
	}
}
