package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/pkg/types"
	"github.com/steveyiyo/signspeak/pkg/ws"
)

// MaxBurstFrames bounds the frames buffered per burst session.
const MaxBurstFrames = 60

// StreamHandler receives burst frames over a websocket and answers with the
// recognized sentence once the client ends the burst.
type StreamHandler struct {
	Hub      *ws.Hub
	AI       Resolver
	Upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewStreamHandler(h *ws.Hub, ai Resolver, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		Hub: h,
		AI:  ai,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logging.OrDiscard(log).With("component", "stream"),
	}
}

func (h *StreamHandler) WS(c *gin.Context) {
	id := c.Query("sess")
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	key := apiKey(c)
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.Hub.Add(id, conn)
	defer func() {
		h.Hub.Remove(id)
		conn.Close()
	}()

	conn.SetReadLimit(8 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	_ = conn.WriteJSON(types.StreamMsg{Type: types.StreamHello, TS: time.Now().UnixMilli()})

	reply := func(m types.StreamMsg) bool {
		m.TS = time.Now().UnixMilli()
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(m) == nil
	}

	for {
		var msg types.StreamMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch msg.Type {
		case types.StreamFrame:
			frame, err := decodeImage(msg.Image)
			if err != nil {
				if !reply(types.StreamMsg{Type: types.StreamError, Error: types.ErrCodeBadRequest}) {
					return
				}
				continue
			}
			h.Hub.Append(id, frame, MaxBurstFrames)
		case types.StreamEnd:
			frames := h.Hub.Take(id)
			if len(frames) == 0 {
				if !reply(types.StreamMsg{Type: types.StreamError, Error: types.ErrCodeBadRequest}) {
					return
				}
				continue
			}
			out := types.StreamMsg{Type: types.StreamSentence, Frames: len(frames)}
			ai, err := h.AI(key)
			if err == nil {
				out.Text, err = ai.Recognize(c.Request.Context(), frames, lang(msg.LanguageName))
			}
			if err != nil {
				h.log.Warn("burst recognition", "sess", id, "frames", len(frames), "err", err)
				out = types.StreamMsg{Type: types.StreamError, Error: err.Error()}
			}
			if !reply(out) {
				return
			}
		}
	}
}
