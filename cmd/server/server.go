package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/steveyiyo/signspeak/internal/config"
	"github.com/steveyiyo/signspeak/internal/core/gemini"
	"github.com/steveyiyo/signspeak/internal/core/jobs"
	h "github.com/steveyiyo/signspeak/internal/http"
	"github.com/steveyiyo/signspeak/internal/logging"
	"github.com/steveyiyo/signspeak/internal/repo/memory"
	"github.com/steveyiyo/signspeak/pkg/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, w := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; only requests carrying a user key will succeed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := gemini.NewPool(cfg.GeminiAPIKey, gemini.Models{
		Text:  cfg.TextModel,
		Image: cfg.ImageModel,
		Video: cfg.VideoModel,
	}, cfg.ClientCacheSize, log)
	signAI, videoAI := h.PoolResolvers(pool)
	svc := jobs.NewService(memory.NewJobRepo(), videoAI, cfg.VideoJobTTL, log)
	go svc.RunJanitor(ctx, time.Minute)

	r := h.NewRouter(h.Deps{AI: signAI, Jobs: svc, Hub: ws.NewHub(), Log: log, AccessLog: w})
	log.Info("listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
