package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type EventType string

const (
	EventCommentUpdated EventType = "comment_updated"
	EventCommentDeleted EventType = "comment_deleted"
	EventPostSaved      EventType = "post_saved"
	EventProfileUpdated EventType = "profile_updated"
	EventFollowChanged  EventType = "follow_changed"
)

// Event is one server push message. Payload is decoded lazily with Decode.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

type CommentDeleted struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
}

type PostSaved struct {
	PostID string `json:"post_id"`
	Saved  bool   `json:"saved"`
}

type FollowChanged struct {
	UserID         string `json:"user_id"`
	IsFollowing    bool   `json:"is_following"`
	FollowersCount int    `json:"followers_count"`
}

// Subscribe streams server events to handle until ctx is cancelled or the
// connection drops. It returns nil when ctx ends the stream.
func (c *Client) Subscribe(ctx context.Context, handle func(Event)) error {
	endpoint, err := c.wsURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Jar:              c.httpClient.Jar,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		// The server may batch several events into one frame, newline separated.
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var ev Event
			if err := dec.Decode(&ev); err != nil {
				if !errors.Is(err, io.EOF) {
					c.logger.Warn("dropping malformed event", zap.Error(err))
				}
				break
			}
			handle(ev)
		}
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := url.Values{}
	if token := c.Token(); token != "" {
		q.Set("token", token)
	}
	if c.deviceID != "" {
		q.Set("device_id", c.deviceID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
