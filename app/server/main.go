package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arielwu/deskpulse/config"
	"github.com/arielwu/deskpulse/internal/alerts"
	"github.com/arielwu/deskpulse/internal/api/handlers"
	"github.com/arielwu/deskpulse/internal/api/middleware"
	"github.com/arielwu/deskpulse/internal/api/routes"
	"github.com/arielwu/deskpulse/internal/artifacts"
	"github.com/arielwu/deskpulse/internal/capture"
	"github.com/arielwu/deskpulse/internal/history"
	"github.com/arielwu/deskpulse/internal/inference"
	"github.com/arielwu/deskpulse/internal/logger"
	"github.com/arielwu/deskpulse/internal/notify"
	"github.com/arielwu/deskpulse/internal/providers/vision"
	"github.com/arielwu/deskpulse/internal/state"
	"github.com/arielwu/deskpulse/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := newVisionProvider(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("vision provider init failed")
	}
	defer provider.Close()

	rdb, err := config.InitRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	uploader, err := storage.NewFrameUploader(ctx, cfg.GCSBucket)
	if err != nil {
		log.WithError(err).Fatal("gcs init failed")
	}
	defer uploader.Close()

	artifactStore, err := artifacts.New(cfg.ArtifactDir, cfg.ArtifactMaxAge, log)
	if err != nil {
		log.WithError(err).Fatal("artifact store init failed")
	}
	go artifactStore.Sweep(ctx)

	var redisNotifier *notify.RedisNotifier
	var notifier notify.Notifier = notify.Nop{}
	if rdb != nil {
		redisNotifier = notify.NewRedisNotifier(rdb, log)
		notifier = redisNotifier
	}

	gateway := inference.NewGateway(provider, log)
	engine := alerts.NewEngine(cfg.Thresholds)
	states := state.NewStore(cfg, engine)
	hist := history.NewLog(cfg.HistoryCapPerUser, cfg.VoiceCapPerUser)

	manager := capture.NewManager(gateway, states, hist, artifactStore,
		uploader, notifier, log, cfg.Cadence, cfg.MinInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		JWTSecret: cfg.JWTSecret,
		State:     handlers.NewStateHandler(states),
		History:   handlers.NewHistoryHandler(hist),
		Session:   handlers.NewSessionHandler(manager),
		WS:        handlers.NewWSHandler(manager, redisNotifier, log),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}

func newVisionProvider(ctx context.Context, cfg *config.Config) (vision.Provider, error) {
	switch cfg.VisionProvider {
	case "vertex":
		return vision.NewVertexVision(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel, cfg.VertexCredsFile)
	default:
		return vision.NewQwenVision(cfg.QwenBaseURL, cfg.QwenAPIKey, cfg.QwenModel)
	}
}
