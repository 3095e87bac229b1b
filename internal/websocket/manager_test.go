package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(m *Manager, id, userID, deviceID string, buffer int) *Client {
	c := &Client{ID: id, UserID: userID, DeviceID: deviceID, Manager: m, Send: make(chan []byte, buffer)}
	m.registerClient(c)
	return c
}

func TestPublishSkipsOriginatingDevice(t *testing.T) {
	m := NewManager(Options{MaxConnPerUser: 5}, nil)
	phone := newTestClient(m, "c1", "u1", "phone", 4)
	laptop := newTestClient(m, "c2", "u1", "laptop", 4)
	other := newTestClient(m, "c3", "u2", "phone", 4)

	m.Publish("u1", "phone", TypePostSaved, map[string]any{"post_id": "7", "saved": true})

	assert.Empty(t, phone.Send)
	assert.Empty(t, other.Send)
	require.Len(t, laptop.Send, 1)

	var msg Message
	require.NoError(t, json.Unmarshal(<-laptop.Send, &msg))
	assert.Equal(t, TypePostSaved, msg.Type)

	var payload struct {
		PostID string `json:"post_id"`
		Saved  bool   `json:"saved"`
	}
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "7", payload.PostID)
	assert.True(t, payload.Saved)
}

func TestPublishWithoutExclusionReachesEveryDevice(t *testing.T) {
	m := NewManager(Options{}, nil)
	a := newTestClient(m, "c1", "u1", "phone", 1)
	b := newTestClient(m, "c2", "u1", "laptop", 1)

	m.Publish("u1", "", TypeFollowChanged, nil)
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)
}

func TestSlowClientIsDropped(t *testing.T) {
	m := NewManager(Options{}, nil)
	c := newTestClient(m, "c1", "u1", "phone", 1)

	m.Publish("u1", "", TypeCommentDeleted, nil)
	m.Publish("u1", "", TypeCommentDeleted, nil)

	assert.Equal(t, 0, m.GetUserConnections("u1"))
	<-c.Send
	_, open := <-c.Send
	assert.False(t, open, "send channel closed on unregister")
}

func TestMaxConnectionsPerUser(t *testing.T) {
	m := NewManager(Options{MaxConnPerUser: 1}, nil)
	newTestClient(m, "c1", "u1", "phone", 1)
	rejected := newTestClient(m, "c2", "u1", "laptop", 1)

	assert.Equal(t, 1, m.GetUserConnections("u1"))
	_, open := <-rejected.Send
	assert.False(t, open)
}

func TestPingIsAnswered(t *testing.T) {
	m := NewManager(Options{}, nil)
	c := newTestClient(m, "c1", "u1", "phone", 1)

	m.processMessage(&ClientMessage{Client: c, Message: []byte(`{"type":"ping"}`)})

	require.Len(t, c.Send, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(<-c.Send, &msg))
	assert.Equal(t, TypePong, msg.Type)
}

func TestAttachAfterStopIsRefused(t *testing.T) {
	m := NewManager(Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := &Client{ID: "c1", UserID: "u1", Manager: m, Send: make(chan []byte, 1)}
	assert.False(t, m.Attach(c))
	assert.Equal(t, 0, m.GetUserConnections("u1"))

	// Pumps that outlive the run loop must not block on it.
	detached := make(chan struct{})
	go func() {
		m.detach(c)
		close(detached)
	}()
	select {
	case <-detached:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after stop")
	}
}

func TestTimingDefaults(t *testing.T) {
	m := NewManager(Options{PongWait: 10 * time.Second, PingPeriod: time.Minute}, nil)
	assert.Equal(t, 9*time.Second, m.pingPeriod)
	assert.Positive(t, m.writeWait)
}
