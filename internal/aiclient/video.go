package aiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/steveyiyo/signspeak/pkg/types"
)

// GenerateVideo submits a video job and polls it every poll interval for at
// most MaxPolls attempts. It returns the playable URL, "" when the job
// finished without a video, ErrKeyRequired when the provider wants a paid key
// and ErrTimeout when the budget runs out.
func (c *Client) GenerateVideo(ctx context.Context, text, languageName string) (string, error) {
	const op = "generate video"
	var sub types.VideoSubmitResp
	status, err := c.call(ctx, op, http.MethodPost, "/api/generate-sign-video",
		types.GenerateReq{Text: text, LanguageName: languageName}, &sub)
	if err != nil {
		return "", err
	}
	if err := classify(op, status, sub.Success, sub.Error); err != nil {
		return "", err
	}
	if sub.VideoURL != "" {
		return c.resolve(sub.VideoURL), nil
	}
	if sub.JobID == "" {
		return "", &RequestError{Op: op, Status: status, Kind: ErrGeneration, Message: "no job id"}
	}

	path := "/api/video-status/" + url.PathEscape(sub.JobID)
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
		var st types.VideoStatusResp
		status, err := c.call(ctx, op, http.MethodGet, path, nil, &st)
		if err != nil {
			return "", err
		}
		if err := classify(op, status, st.Success, st.Error); err != nil {
			return "", err
		}
		if !st.Done {
			c.log.Debug("video pending", "job", sub.JobID, "attempt", attempt)
			continue
		}
		if st.VideoURL == "" {
			return "", nil
		}
		return c.resolve(st.VideoURL), nil
	}
	return "", &RequestError{Op: op, Kind: ErrTimeout, Message: sub.JobID}
}

func classify(op string, status int, success bool, msg string) error {
	switch {
	case msg == types.ErrCodeKeyRequired:
		return &RequestError{Op: op, Status: status, Kind: ErrKeyRequired}
	case !success || status >= http.StatusBadRequest:
		return &RequestError{Op: op, Status: status, Kind: ErrGeneration, Message: msg}
	}
	return nil
}
