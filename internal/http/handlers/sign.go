package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/steveyiyo/signspeak/internal/core/gemini"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/pkg/types"
)

// SignAI is the provider surface used by the handlers.
type SignAI interface {
	DescribeStream(ctx context.Context, text, languageName string) iter.Seq2[string, error]
	GenerateImage(ctx context.Context, text, languageName string) (gemini.Image, error)
	FetchVideo(ctx context.Context, uri string) (*http.Response, error)
	Recognize(ctx context.Context, frames [][]byte, languageName string) (string, error)
	Evaluate(ctx context.Context, frame []byte, target string) (gemini.Evaluation, error)
}

// Resolver picks the provider for the caller's key; "" means the server key.
type Resolver func(apiKey string) (SignAI, error)

const defaultLanguage = "English"

type SignHandler struct {
	AI  Resolver
	log *slog.Logger
}

func NewSignHandler(ai Resolver, log *slog.Logger) *SignHandler {
	return &SignHandler{AI: ai, log: logging.OrDiscard(log).With("component", "http")}
}

func apiKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(types.APIKeyHeader))
}

func lang(name string) string {
	if name == "" {
		return defaultLanguage
	}
	return name
}

func isKeyErr(err error) bool {
	return errors.Is(err, gemini.ErrKeyRequired) || errors.Is(err, gemini.ErrNoKey)
}

func fail(c *gin.Context, status int, err error) {
	if isKeyErr(err) {
		c.JSON(http.StatusForbidden, types.ErrorResp{Error: types.ErrCodeKeyRequired})
		return
	}
	c.JSON(status, types.ErrorResp{Error: err.Error()})
}

func (h *SignHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResp{Message: "Backend is working"})
}

// Describe streams instruction fragments as server-sent events.
func (h *SignHandler) Describe(c *gin.Context) {
	var req types.GenerateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResp{Error: types.ErrCodeBadRequest})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	ai, err := h.AI(apiKey(c))
	if err != nil {
		c.SSEvent("", types.DescribeChunk{Error: err.Error()})
		return
	}
	for frag, err := range ai.DescribeStream(c.Request.Context(), req.Text, lang(req.LanguageName)) {
		if err != nil {
			h.log.Warn("describe stream", "err", err)
			c.SSEvent("", types.DescribeChunk{Error: err.Error()})
			c.Writer.Flush()
			return
		}
		c.SSEvent("", types.DescribeChunk{Text: frag})
		c.Writer.Flush()
	}
}

func (h *SignHandler) Image(c *gin.Context) {
	var req types.GenerateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ImageResp{Error: types.ErrCodeBadRequest})
		return
	}
	ai, err := h.AI(apiKey(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	img, err := ai.GenerateImage(c.Request.Context(), req.Text, lang(req.LanguageName))
	switch {
	case errors.Is(err, gemini.ErrNoResult):
		c.JSON(http.StatusOK, types.ImageResp{Error: types.ErrCodeNoResult})
	case err != nil:
		h.log.Warn("image generation", "err", err)
		fail(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, types.ImageResp{
			Success:   true,
			ImageData: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
		})
	}
}

func decodeFrames(req types.RecognizeReq) ([][]byte, error) {
	raw := req.Images
	if len(raw) == 0 && req.Image != "" {
		raw = []string{req.Image}
	}
	if len(raw) == 0 {
		return nil, errors.New("no image")
	}
	frames := make([][]byte, 0, len(raw))
	for _, r := range raw {
		b, err := decodeImage(r)
		if err != nil {
			return nil, err
		}
		frames = append(frames, b)
	}
	return frames, nil
}

// decodeImage accepts bare base64 or a data URI.
func decodeImage(s string) ([]byte, error) {
	if _, payload, ok := strings.Cut(s, ";base64,"); ok && strings.HasPrefix(s, "data:") {
		s = payload
	}
	return base64.StdEncoding.DecodeString(s)
}

func (h *SignHandler) Recognize(c *gin.Context) {
	var req types.RecognizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.RecognizeResp{Error: types.ErrCodeBadRequest})
		return
	}
	frames, err := decodeFrames(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.RecognizeResp{Error: types.ErrCodeBadRequest})
		return
	}
	ai, err := h.AI(apiKey(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	text, err := ai.Recognize(c.Request.Context(), frames, lang(req.LanguageName))
	if err != nil {
		h.log.Warn("recognition", "frames", len(frames), "err", err)
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, types.RecognizeResp{Success: true, Prediction: text})
}

func (h *SignHandler) Evaluate(c *gin.Context) {
	var req types.EvaluateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResp{Error: types.ErrCodeBadRequest})
		return
	}
	frame, err := decodeImage(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResp{Error: types.ErrCodeBadRequest})
		return
	}
	ai, err := h.AI(apiKey(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ev, err := ai.Evaluate(c.Request.Context(), frame, req.TargetSign)
	if err != nil {
		h.log.Warn("evaluation", "target", req.TargetSign, "err", err)
		fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, types.EvaluateResp{Correct: ev.Correct, Feedback: ev.Feedback, IsSimilar: ev.IsSimilar})
}
