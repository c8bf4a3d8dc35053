// Package aiclient is the typed client for the sign-language AI backend:
// streamed descriptions, image and video generation, gesture recognition and
// practice evaluation.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/media"
	"github.com/steveyiyo/signspeak/pkg/types"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxPolls     = 40
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// PollInterval and MaxPolls bound video generation polling.
	PollInterval time.Duration
	MaxPolls     int
	// Sleep waits between polls; tests replace it to skip real waiting.
	Sleep func(ctx context.Context, d time.Duration) error
	// StreamBursts sends multi-frame recognition over the websocket endpoint.
	StreamBursts bool
	Logger       *slog.Logger
}

type Client struct {
	base         string
	hc           *http.Client
	pollInterval time.Duration
	maxPolls     int
	sleep        func(ctx context.Context, d time.Duration) error
	streamBursts bool
	log          *slog.Logger

	mu     sync.RWMutex
	apiKey string
}

func New(o Options) *Client {
	c := &Client{
		base:         strings.TrimRight(o.BaseURL, "/"),
		hc:           o.HTTPClient,
		pollInterval: o.PollInterval,
		maxPolls:     o.MaxPolls,
		sleep:        o.Sleep,
		streamBursts: o.StreamBursts,
		log:          logging.OrDiscard(o.Logger).With("component", "aiclient"),
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: 2 * time.Minute}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxPolls <= 0 {
		c.maxPolls = DefaultMaxPolls
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	return c
}

// SetAPIKey installs the user-selected provider key sent with every request.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.apiKey != "" {
		req.Header.Set(types.APIKeyHeader, c.apiKey)
	}
	c.mu.RUnlock()
	return req, nil
}

// call performs a JSON round trip. The body is decoded into out whatever the
// status, since the backend reports failures as JSON too.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) (int, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return 0, &RequestError{Op: op, Kind: ErrTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, &RequestError{Op: op, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return resp.StatusCode, &RequestError{Op: op, Status: resp.StatusCode, Kind: ErrTransport, Err: err}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &RequestError{Op: op, Status: resp.StatusCode, Kind: ErrTransport, Message: "malformed response", Err: err}
		}
	}
	return resp.StatusCode, nil
}

// Health calls the backend health check.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out types.HealthResp
	status, err := c.call(ctx, "health", http.MethodGet, "/api/test", nil, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &RequestError{Op: "health", Status: status, Kind: ErrTransport}
	}
	return out.Message, nil
}

// GenerateImage returns nil without error when the backend produced nothing,
// and ErrGeneration when the provider failed.
func (c *Client) GenerateImage(ctx context.Context, text, languageName string) (*media.EncodedImage, error) {
	var out types.ImageResp
	status, err := c.call(ctx, "generate image", http.MethodPost, "/api/generate-sign-image",
		types.GenerateReq{Text: text, LanguageName: languageName}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error == types.ErrCodeNoResult {
		return nil, nil
	}
	if err := classify("generate image", status, out.Success, out.Error); err != nil {
		return nil, err
	}
	if out.ImageData == "" {
		return nil, nil
	}
	img, err := media.ParseDataURI(out.ImageData)
	if err != nil {
		return nil, &RequestError{Op: "generate image", Status: status, Kind: ErrGeneration, Err: err}
	}
	return &img, nil
}

// RecognizeGesture translates one snapshot or an ordered burst into a
// sentence. It never fails: NoGestureDetected and RecognitionFailed stand in
// for empty and failed recognition.
func (c *Client) RecognizeGesture(ctx context.Context, images []media.EncodedImage, languageName string) string {
	if len(images) == 0 {
		return NoGestureDetected
	}
	if len(images) > 1 && c.streamBursts {
		return c.recognizeOverStream(ctx, images, languageName)
	}
	req := types.RecognizeReq{LanguageName: languageName}
	if len(images) == 1 {
		req.Image = images[0].Base64()
	} else {
		req.Sequence = true
		req.Images = make([]string, len(images))
		for i, img := range images {
			req.Images[i] = img.Base64()
		}
	}
	var out types.RecognizeResp
	status, err := c.call(ctx, "recognize", http.MethodPost, "/api/recognize-gesture", req, &out)
	if err != nil || !out.Success {
		c.log.Warn("recognition failed", "status", status, "err", err, "backend_error", out.Error)
		return RecognitionFailed
	}
	return normalizePrediction(out.Prediction)
}

func normalizePrediction(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return NoGestureDetected
	}
	return p
}

// Evaluation is the outcome of one practice attempt.
type Evaluation struct {
	Correct  bool
	Feedback string
}

// EvaluatePractice never fails; transport and parse errors turn into an
// encouraging negative evaluation.
func (c *Client) EvaluatePractice(ctx context.Context, img media.EncodedImage, target string) Evaluation {
	var out types.EvaluateResp
	status, err := c.call(ctx, "evaluate", http.MethodPost, "/api/evaluate-practice",
		types.EvaluateReq{Image: img.Base64(), TargetSign: target}, &out)
	if err != nil || status != http.StatusOK {
		c.log.Warn("evaluation failed", "status", status, "err", err)
		return Evaluation{Correct: false, Feedback: fallbackFeedback}
	}
	ev := Evaluation{Correct: out.Correct || out.IsSimilar, Feedback: strings.TrimSpace(out.Feedback)}
	if ev.Feedback == "" {
		ev.Feedback = defaultFeedback
	}
	return ev
}

func (c *Client) resolve(u string) string {
	if strings.HasPrefix(u, "/") {
		return c.base + u
	}
	return u
}
