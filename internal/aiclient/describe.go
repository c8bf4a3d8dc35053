package aiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"strings"

	"github.com/steveyiyo/signspeak/pkg/types"
)

// Describe streams a short description of how to sign text. The request is
// sent when iteration starts. The sequence ends when the backend closes the
// stream; a failure part-way simply ends it early.
func (c *Client) Describe(ctx context.Context, text, languageName string) iter.Seq[string] {
	return func(yield func(string) bool) {
		req, err := c.newRequest(ctx, http.MethodPost, "/api/describe-sign-stream",
			types.GenerateReq{Text: text, LanguageName: languageName})
		if err != nil {
			c.log.Warn("describe request", "err", err)
			return
		}
		req.Header.Set("Accept", "text/event-stream")
		resp, err := c.hc.Do(req)
		if err != nil {
			c.log.Warn("describe stream unreachable", "err", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.log.Warn("describe stream rejected", "status", resp.StatusCode)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			payload, ok := strings.CutPrefix(sc.Text(), "data:")
			if !ok {
				continue
			}
			var chunk types.DescribeChunk
			if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &chunk); err != nil {
				c.log.Debug("describe chunk skipped", "err", err)
				continue
			}
			if chunk.Error != "" {
				c.log.Warn("describe stream error", "error", chunk.Error)
				return
			}
			if chunk.Text == "" {
				continue
			}
			if !yield(chunk.Text) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			c.log.Warn("describe stream interrupted", "err", err)
		}
	}
}
