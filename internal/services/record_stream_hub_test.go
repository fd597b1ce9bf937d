package services

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/coinpulse-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRecordStreamHubBroadcastsAndStops(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	hub := NewRecordStreamHub(redisClient, store.SnapshotUpdateChannel)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	first, unsubscribeFirst := hub.Subscribe()
	defer unsubscribeFirst()
	second, unsubscribeSecond := hub.Subscribe()
	require.Equal(t, 2, hub.Subscribers())

	// publish until the hub's subscription is live
	payload := `{"records":[{"coinId":"btc"}]}`
	deadline := time.After(3 * time.Second)
	for received := false; !received; {
		_ = redisClient.Publish(context.Background(), store.SnapshotUpdateChannel, payload).Err()
		select {
		case msg := <-first:
			require.JSONEq(t, payload, string(msg))
			received = true
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("timed out waiting for broadcast")
		}
	}

	unsubscribeSecond()
	for range second {
		// buffered messages, then close
	}
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// drain anything buffered, then expect close
	for range first {
	}

	late, _ := hub.Subscribe()
	_, open := <-late
	require.False(t, open)
}
