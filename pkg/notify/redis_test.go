package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNotifierPublish(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	notifier := NewRedisNotifierFromClient(client, "")
	assert.Equal(t, DefaultChannel, notifier.channel)

	ctx := context.Background()
	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()

	// Wait for the subscription to be established
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := &Event{
		Type:       EventInvitationCreated,
		BusinessID: 7,
		ActorID:    1,
		Data:       map[string]interface{}{"role": "editor"},
	}
	require.NoError(t, notifier.Publish(ctx, event))
	assert.False(t, event.Timestamp.IsZero()) // stamped on publish

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, EventInvitationCreated, got.Type)
		assert.Equal(t, int64(7), got.BusinessID)
		assert.Equal(t, "editor", got.Data["role"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestRedisNotifierCustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	notifier := NewRedisNotifierFromClient(client, "custom:events")
	assert.Equal(t, "custom:events", notifier.channel)
}

func TestNewRedisNotifierBadURL(t *testing.T) {
	_, err := NewRedisNotifier("not-a-url", "")
	assert.Error(t, err)
}
