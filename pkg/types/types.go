package types

// Error codes carried in ErrorResp.Error.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeKeyRequired = "key_required"
	ErrCodeNotFound    = "not_found"
	ErrCodeNoResult    = "no_result"
)

// APIKeyHeader carries a user-selected provider key for premium generation.
const APIKeyHeader = "X-Goog-Api-Key"

type ErrorResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type GenerateReq struct {
	Text         string `json:"text" binding:"required"`
	LanguageName string `json:"languageName"`
}

// DescribeChunk is one server-sent event on the describe stream.
type DescribeChunk struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type ImageResp struct {
	Success   bool   `json:"success"`
	ImageData string `json:"image_data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VideoSubmitResp answers a video submission: either a job to poll or, for
// backends that finish synchronously, the video itself.
type VideoSubmitResp struct {
	Success  bool   `json:"success"`
	JobID    string `json:"job_id,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type VideoStatusResp struct {
	Success  bool   `json:"success"`
	Done     bool   `json:"done"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RecognizeReq carries either a single base64 JPEG in Image or an ordered
// burst in Images with Sequence set.
type RecognizeReq struct {
	Image        string   `json:"image,omitempty"`
	Images       []string `json:"images,omitempty"`
	Sequence     bool     `json:"sequence,omitempty"`
	LanguageName string   `json:"languageName"`
}

type RecognizeResp struct {
	Success    bool   `json:"success"`
	Prediction string `json:"prediction,omitempty"`
	Error      string `json:"error,omitempty"`
}

type EvaluateReq struct {
	Image      string `json:"image" binding:"required"`
	TargetSign string `json:"targetSign" binding:"required"`
}

type EvaluateResp struct {
	Correct   bool   `json:"correct"`
	Feedback  string `json:"feedback"`
	IsSimilar bool   `json:"isSimilar"`
}

type HealthResp struct {
	Message string `json:"message"`
}

// StreamMsg is exchanged on the burst websocket.
//
//	client → server: {"type":"frame","image":...} ... {"type":"end","languageName":...}
//	server → client: {"type":"hello"} then {"type":"sentence","text":...} or {"type":"error","error":...}
type StreamMsg struct {
	Type         string `json:"type"`
	TS           int64  `json:"ts,omitempty"`
	Image        string `json:"image,omitempty"`
	LanguageName string `json:"languageName,omitempty"`
	Text         string `json:"text,omitempty"`
	Frames       int    `json:"frames,omitempty"`
	Error        string `json:"error,omitempty"`
}

const (
	StreamHello    = "hello"
	StreamFrame    = "frame"
	StreamEnd      = "end"
	StreamSentence = "sentence"
	StreamError    = "error"
)
