package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"onboarding-media/config"
	"onboarding-media/constant"
	jobHandler "onboarding-media/handler"
	"onboarding-media/pkg/auth"
	"onboarding-media/pkg/queue"
	"onboarding-media/pkg/storage"
	"onboarding-media/repository"
	"onboarding-media/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.WaitForPostgres(ctx, cfg.DB); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("WaitForPostgres")
	}

	layout := storage.NewLayout(cfg.Storage.Root, cfg.Storage.PublicBaseUrl)
	repo := repository.NewRepo(cfg.DB)
	transcoder := service.NewVideoTranscoder(repo, layout)

	// One job per video upload; the dispatcher decouples transcoding from
	// the request/response cycle.
	dispatcher := queue.NewDispatcher(cfg.Server.Workers, cfg.Server.Workers*4, jobHandler.TranscodeHandler)

	ingestion := service.NewIngestionService(repo, layout, service.NewValidator(), service.NewImageNormalizer(), dispatcher)

	serviceDeps := jobHandler.ServiceDependencies{
		IngestionService: ingestion,
		VideoTranscoder:  transcoder,
	}
	dispatcher.Start(ctx, serviceDeps)

	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	h := jobHandler.NewHandler(ingestion)

	r := gin.Default()
	r.GET("/", h.Root)
	r.GET("/media", h.ListMedia)
	r.POST("/upload", jobHandler.LimitBody(constant.MaxVideoBytes), jobHandler.RequireAuth(verifier), h.Upload)
	r.DELETE("/media", jobHandler.RequireAuth(verifier), h.DeleteMedia)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
