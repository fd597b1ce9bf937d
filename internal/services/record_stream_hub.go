package services

import (
	"context"
	"sync"
	"time"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RecordStreamHub multiplexes snapshot update messages from Redis pub/sub to many SSE
// clients without opening a Redis subscription per HTTP request.
type RecordStreamHub struct {
	redis       *redis.Client
	channelName string

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
	closed      bool
}

func NewRecordStreamHub(redis *redis.Client, channel string) *RecordStreamHub {
	return &RecordStreamHub{
		redis:       redis,
		channelName: channel,
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Run forwards messages until ctx is cancelled, then closes every subscriber
func (h *RecordStreamHub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		pubsub := h.redis.Subscribe(ctx, h.channelName)
		ch := pubsub.Channel(redis.WithChannelSize(256))

	forward:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break forward
				}
				h.broadcast([]byte(msg.Payload))
			}
		}

		_ = pubsub.Close()
		logger.Warn("Snapshot stream subscription dropped, resubscribing")

		// Avoid tight loop if Redis connection drops
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (h *RecordStreamHub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub <- payload:
		default:
			// Subscriber is too slow; drop the oldest message
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a new listener and returns a channel plus cleanup function.
// The channel is closed when the hub stops.
func (h *RecordStreamHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 8)

	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subscribers[ch] = struct{}{}
	}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// Subscribers reports the number of connected listeners
func (h *RecordStreamHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *RecordStreamHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub)
	}
}
