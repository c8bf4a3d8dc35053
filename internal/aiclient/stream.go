package aiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/pkg/types"
)

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/stream"
	u.RawQuery = url.Values{"sess": {"burst_" + uuid.NewString()}}.Encode()
	return u.String(), nil
}

// recognizeOverStream uploads a burst frame by frame over the websocket
// endpoint and waits for the recognized sentence.
func (c *Client) recognizeOverStream(ctx context.Context, frames []media.EncodedImage, languageName string) string {
	addr, err := c.streamURL()
	if err != nil {
		return RecognitionFailed
	}
	hdr := http.Header{}
	c.mu.RLock()
	if c.apiKey != "" {
		hdr.Set(types.APIKeyHeader, c.apiKey)
	}
	c.mu.RUnlock()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, hdr)
	if err != nil {
		c.log.Warn("burst stream dial", "err", err)
		return RecognitionFailed
	}
	defer conn.Close()

	for _, f := range frames {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(types.StreamMsg{Type: types.StreamFrame, Image: f.Base64()}); err != nil {
			c.log.Warn("burst stream write", "err", err)
			return RecognitionFailed
		}
	}
	if err := conn.WriteJSON(types.StreamMsg{Type: types.StreamEnd, LanguageName: languageName}); err != nil {
		return RecognitionFailed
	}

	deadline := time.Now().Add(2 * time.Minute)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)
	for {
		var msg types.StreamMsg
		if err := conn.ReadJSON(&msg); err != nil {
			c.log.Warn("burst stream read", "err", err)
			return RecognitionFailed
		}
		switch msg.Type {
		case types.StreamSentence:
			return normalizePrediction(msg.Text)
		case types.StreamError:
			c.log.Warn("burst stream error", "error", msg.Error)
			return RecognitionFailed
		}
	}
}
