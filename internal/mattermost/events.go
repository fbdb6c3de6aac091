package mattermost

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket event names as the server sends them.
const (
	eventPosted        = "posted"
	eventPostEdited    = "post_edited"
	eventPostDeleted   = "post_deleted"
	eventChannelViewed = "channel_viewed"
	eventHello         = "hello"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxBackoff = 30 * time.Second
)

// EventHandler carries the callbacks invoked by the websocket event stream.
// Nil callbacks are skipped. Callbacks run on the reader goroutine; handlers
// must hand work off if they block.
type EventHandler struct {
	OnConnected     func()
	OnDisconnected  func(err error)
	OnPosted        func(channelID string, post *Post)
	OnPostEdited    func(channelID string, post *Post)
	OnPostDeleted   func(channelID string, post *Post)
	OnChannelViewed func(channelID string)
	OnError         func(err error)
}

// wireEvent is the envelope the server sends for every websocket event.
type wireEvent struct {
	Event     string                     `json:"event"`
	Data      map[string]json.RawMessage `json:"data"`
	Broadcast struct {
		ChannelID string `json:"channel_id"`
	} `json:"broadcast"`
	SeqReply int64 `json:"seq_reply"`
}

// RunWebSocket connects to the server's event stream and dispatches events
// to the handler until ctx is canceled. Connection drops are retried with
// capped exponential backoff; the handler is told about each transition.
func (c *Client) RunWebSocket(ctx context.Context, handler *EventHandler) {
	backoff := time.Second
	for {
		err := c.runOnce(ctx, handler)
		if ctx.Err() != nil {
			return
		}

		if handler.OnDisconnected != nil {
			handler.OnDisconnected(err)
		}
		slog.Warn("websocket disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runOnce dials, authenticates, and reads events until the connection drops
// or ctx is canceled.
func (c *Client) runOnce(ctx context.Context, handler *EventHandler) error {
	wsURL := websocketURL(c.baseURL)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, http.Header{
		"Authorization": []string{"Bearer " + c.token},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{Message: "websocket handshake rejected"}
		}
		return &NetworkError{Err: err}
	}
	defer conn.Close()

	// Some proxies strip the Authorization header, so also authenticate
	// in-band the way the official clients do.
	challenge := map[string]any{
		"seq":    1,
		"action": "authentication_challenge",
		"data":   map[string]string{"token": c.token},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(challenge); err != nil {
		return &NetworkError{Err: err}
	}

	if handler.OnConnected != nil {
		handler.OnConnected()
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(ctx, conn, done)

	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &NetworkError{Err: err}
		}
		dispatchEvent(&ev, handler)
	}
}

// pingLoop keeps the connection alive and closes it when ctx is canceled so
// the blocked reader unwinds.
func pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-done:
			return
		}
	}
}

// dispatchEvent routes a decoded event to the matching handler callback.
func dispatchEvent(ev *wireEvent, handler *EventHandler) {
	switch ev.Event {
	case eventPosted:
		post, err := decodePost(ev.Data["post"])
		if err != nil {
			notifyError(handler, err)
			return
		}
		if handler.OnPosted != nil {
			handler.OnPosted(post.ChannelID, post)
		}
	case eventPostEdited:
		post, err := decodePost(ev.Data["post"])
		if err != nil {
			notifyError(handler, err)
			return
		}
		if handler.OnPostEdited != nil {
			handler.OnPostEdited(post.ChannelID, post)
		}
	case eventPostDeleted:
		post, err := decodePost(ev.Data["post"])
		if err != nil {
			notifyError(handler, err)
			return
		}
		if handler.OnPostDeleted != nil {
			handler.OnPostDeleted(post.ChannelID, post)
		}
	case eventChannelViewed:
		channelID := ev.Broadcast.ChannelID
		if channelID == "" {
			var id string
			if raw, ok := ev.Data["channel_id"]; ok {
				_ = json.Unmarshal(raw, &id)
			}
			channelID = id
		}
		if channelID != "" && handler.OnChannelViewed != nil {
			handler.OnChannelViewed(channelID)
		}
	case eventHello, "":
		// hello and seq replies carry no payload we care about
	}
}

func notifyError(handler *EventHandler, err error) {
	slog.Error("websocket event decode failed", "error", err)
	if handler.OnError != nil {
		handler.OnError(err)
	}
}

// decodePost unwraps a post payload. The server double-encodes it: the post
// arrives as a JSON string whose contents are the post's JSON.
func decodePost(raw json.RawMessage) (*Post, error) {
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}
	var post Post
	if err := json.Unmarshal([]byte(inner), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// websocketURL converts the REST base URL into the websocket endpoint.
func websocketURL(base string) string {
	ws := base
	if strings.HasPrefix(ws, "https://") {
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	} else if strings.HasPrefix(ws, "http://") {
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + apiPrefix + "/websocket"
}
