package gemini

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/steveyiyo/signspeak/internal/logging"
)

var (
	// ErrKeyRequired: the provider rejected the key for this model.
	ErrKeyRequired = errors.New("key required")
	// ErrNoResult: the model answered without the requested media.
	ErrNoResult = errors.New("no result")
)

type Models struct {
	Text  string
	Image string
	Video string
}

type Client struct {
	c      *genai.Client
	hc     *http.Client
	apiKey string
	models Models
	log    *slog.Logger
}

func New(apiKey string, models Models, log *slog.Logger) (*Client, error) {
	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2: false,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 2 * time.Minute}
	reqTimeout := 90 * time.Second
	cl, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			Timeout: &reqTimeout,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{c: cl, hc: hc, apiKey: apiKey, models: models, log: logging.OrDiscard(log).With("component", "gemini")}, nil
}

func (g *Client) Close() error { return nil }

// DescribeStream yields fragments of a short signing instruction.
func (g *Client) DescribeStream(ctx context.Context, text, languageName string) iter.Seq2[string, error] {
	prompt := fmt.Sprintf("Explain briefly (max 12 words) how to sign the %s phrase '%s' in ASL. Focus on hand positions.", languageName, text)
	return func(yield func(string, error) bool) {
		for resp, err := range g.c.Models.GenerateContentStream(ctx, g.models.Text, genai.Text(prompt), nil) {
			if err != nil {
				yield("", classify(err))
				return
			}
			if t := resp.Text(); t != "" {
				if !yield(t, nil) {
					return
				}
			}
		}
	}
}

// Image is generated media bytes.
type Image struct {
	MIMEType string
	Data     []byte
}

func (g *Client) GenerateImage(ctx context.Context, text, _ string) (Image, error) {
	parts := []*genai.Part{
		{Text: fmt.Sprintf("A professional 3D animated character on a clean white background performing the ASL sign for: %q. High contrast, clear hand visibility.", text)},
	}
	resp, err := g.callOnce(ctx, g.models.Image, parts, nil)
	if err != nil {
		return Image{}, err
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return Image{MIMEType: mime, Data: p.InlineData.Data}, nil
			}
		}
	}
	return Image{}, ErrNoResult
}

// StartVideo submits a video generation and returns its operation name.
func (g *Client) StartVideo(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("High-quality 3D character in a bright studio performing the ASL sign for: %q. Smooth, professional animation.", text)
	op, err := g.c.Models.GenerateVideos(ctx, g.models.Video, prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return "", classify(err)
	}
	return op.Name, nil
}

type VideoStatus struct {
	Done bool
	URI  string
}

// PollVideo checks a video operation once.
func (g *Client) PollVideo(ctx context.Context, operation string) (VideoStatus, error) {
	op, err := g.c.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: operation}, nil)
	if err != nil {
		return VideoStatus{}, classify(err)
	}
	if !op.Done {
		return VideoStatus{}, nil
	}
	if op.Error != nil {
		return VideoStatus{Done: true}, classify(fmt.Errorf("video operation failed: %v", op.Error))
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return VideoStatus{Done: true}, ErrNoResult
	}
	return VideoStatus{Done: true, URI: op.Response.GeneratedVideos[0].Video.URI}, nil
}

// FetchVideo downloads a finished video. The key travels in a header so it
// never reaches the client.
func (g *Client) FetchVideo(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch video: status %d", resp.StatusCode)
	}
	return resp, nil
}

// Recognize translates one snapshot or an ordered sequence of JPEG frames
// into a sentence in languageName.
func (g *Client) Recognize(ctx context.Context, frames [][]byte, languageName string) (string, error) {
	parts := make([]*genai.Part, 0, len(frames)+1)
	for _, f := range frames {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: f, MIMEType: "image/jpeg"}})
	}
	kind := "This is a single snapshot."
	if len(frames) > 1 {
		kind = "This is a sequence of frames from a recording."
	}
	parts = append(parts, &genai.Part{Text: fmt.Sprintf(
		"Analyze the American Sign Language (ASL) gesture(s) in these image(s). %s "+
			"Identify the intent and translate it into a natural, complete sentence in %s. "+
			"Return only the translated sentence text.", kind, languageName)})

	resp, err := g.callOnce(ctx, g.models.Text, parts, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

type Evaluation struct {
	Correct   bool   `json:"correct"`
	Feedback  string `json:"feedback"`
	IsSimilar bool   `json:"isSimilar"`
}

// Evaluate grades a practice frame leniently.
func (g *Client) Evaluate(ctx context.Context, frame []byte, target string) (Evaluation, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: frame, MIMEType: "image/jpeg"}},
		{Text: fmt.Sprintf(`The user is practicing the ASL sign for %q.
We are teaching beginners. Be extremely lenient and encouraging.
If the hand shape or position is even slightly similar to the correct sign, mark "correct": true.
"Close enough" is "Correct". Do not be strict about perfect finger placement.
Respond ONLY in JSON: {"correct": boolean, "feedback": "A very positive, encouraging message.", "isSimilar": boolean}`, target)},
	}
	temp := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"correct":   {Type: genai.TypeBoolean},
				"feedback":  {Type: genai.TypeString},
				"isSimilar": {Type: genai.TypeBoolean},
			},
			Required: []string{"correct", "feedback"},
		},
		Temperature: &temp,
	}
	resp, err := g.callOnce(ctx, g.models.Text, parts, cfg)
	if err != nil {
		return Evaluation{}, err
	}
	var ev Evaluation
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &ev); err != nil {
		return Evaluation{}, fmt.Errorf("parse evaluation: %w", err)
	}
	if ev.IsSimilar {
		ev.Correct = true
	}
	return ev, nil
}

func (g *Client) callOnce(ctx context.Context, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for i := 0; i < 3; i++ {
		resp, err := g.c.Models.GenerateContent(ctx, model, []*genai.Content{{Role: genai.RoleUser, Parts: parts}}, cfg)
		if err != nil {
			lastErr = classify(err)
			if retriable(err) {
				g.log.Debug("retrying", "model", model, "attempt", i+1, "err", err)
				time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
				continue
			}
			return nil, lastErr
		}
		if resp != nil && len(resp.Candidates) > 0 {
			return resp, nil
		}
		lastErr = ErrNoResult
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return nil, lastErr
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrKeyRequired) {
		return err
	}
	if keyRequired(err) {
		return fmt.Errorf("%w: %v", ErrKeyRequired, err)
	}
	return err
}

func keyRequired(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Requested entity was not found") ||
		strings.Contains(s, "PERMISSION_DENIED") ||
		strings.Contains(s, "API key not valid")
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "RST_STREAM") ||
		strings.Contains(s, "connection reset")
}
