package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steveyiyo/signspeak/internal/core/jobs"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/pkg/types"
)

type VideoHandler struct {
	Jobs *jobs.Service
	AI   Resolver
	log  *slog.Logger
}

func NewVideoHandler(svc *jobs.Service, ai Resolver, log *slog.Logger) *VideoHandler {
	return &VideoHandler{Jobs: svc, AI: ai, log: logging.OrDiscard(log).With("component", "http")}
}

func videoURL(id string) string { return "/api/videos/" + id }

// Submit starts a video job; clients poll Status with the returned id.
func (h *VideoHandler) Submit(c *gin.Context) {
	var req types.GenerateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.VideoSubmitResp{Error: types.ErrCodeBadRequest})
		return
	}
	job, err := h.Jobs.Submit(c.Request.Context(), req.Text, lang(req.LanguageName), apiKey(c))
	if err != nil {
		h.log.Warn("video submit", "err", err)
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusAccepted, types.VideoSubmitResp{Success: true, JobID: job.ID})
}

func (h *VideoHandler) Status(c *gin.Context) {
	id := c.Param("id")
	job, err := h.Jobs.Status(c.Request.Context(), id)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		c.JSON(http.StatusNotFound, types.VideoStatusResp{Error: types.ErrCodeNotFound})
		return
	case err != nil:
		h.log.Warn("video status", "job", id, "err", err)
		fail(c, http.StatusBadGateway, err)
		return
	}
	resp := types.VideoStatusResp{Success: true, Done: job.Done}
	if job.Done {
		if job.Err != "" {
			resp.Success = false
			resp.Error = job.Err
		} else if job.VideoURI != "" {
			resp.VideoURL = videoURL(job.ID)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Proxy streams a finished video so the provider key stays on the server.
func (h *VideoHandler) Proxy(c *gin.Context) {
	job, ok := h.Jobs.Get(c.Param("id"))
	if !ok || !job.Done || job.VideoURI == "" {
		c.JSON(http.StatusNotFound, types.ErrorResp{Error: types.ErrCodeNotFound})
		return
	}
	ai, err := h.AI(job.APIKey)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	resp, err := ai.FetchVideo(c.Request.Context(), job.VideoURI)
	if err != nil {
		h.log.Warn("video fetch", "job", job.ID, "err", err)
		fail(c, http.StatusBadGateway, err)
		return
	}
	defer resp.Body.Close()
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "video/mp4"
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, ct, resp.Body, nil)
}
