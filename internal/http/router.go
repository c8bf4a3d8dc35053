package http

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/steveyiyo/signspeak/internal/core/gemini"
	"github.com/steveyiyo/signspeak/internal/core/jobs"
	"github.com/steveyiyo/signspeak/internal/http/handlers"
	"github.com/steveyiyo/signspeak/pkg/ws"
)

// Deps are the services the routes are wired to.
type Deps struct {
	AI   handlers.Resolver
	Jobs *jobs.Service
	Hub  *ws.Hub
	Log  *slog.Logger
	// AccessLog receives gin's request log; nil disables it.
	AccessLog io.Writer
}

// PoolResolvers adapts a client pool to the handler and job resolvers.
func PoolResolvers(p *gemini.Pool) (handlers.Resolver, jobs.Resolver) {
	sign := func(key string) (handlers.SignAI, error) {
		c, err := p.For(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	video := func(key string) (jobs.VideoBackend, error) {
		c, err := p.For(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return sign, video
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	if d.AccessLog != nil {
		r.Use(gin.LoggerWithWriter(d.AccessLog))
	}
	r.Use(gin.Recovery())

	sh := handlers.NewSignHandler(d.AI, d.Log)
	vh := handlers.NewVideoHandler(d.Jobs, d.AI, d.Log)
	wsh := handlers.NewStreamHandler(d.Hub, d.AI, d.Log)

	api := r.Group("/api")
	api.GET("/test", sh.Health)
	api.POST("/describe-sign-stream", sh.Describe)
	api.POST("/generate-sign-image", sh.Image)
	api.POST("/generate-sign-video", vh.Submit)
	api.GET("/video-status/:id", vh.Status)
	api.GET("/videos/:id", vh.Proxy)
	api.POST("/recognize-gesture", sh.Recognize)
	api.POST("/evaluate-practice", sh.Evaluate)
	r.GET("/v1/stream", wsh.WS)
	return r
}
