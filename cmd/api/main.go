package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"garmentedit/internal/adapter/repo"
	"garmentedit/internal/analysis"
	"garmentedit/internal/domain"
	"garmentedit/internal/http/handlers"
	httpapi "garmentedit/internal/http/httpapi"
	"garmentedit/internal/imagegen"
	"garmentedit/internal/imaging"
	"garmentedit/internal/infra"
	"garmentedit/internal/infra/geoip"
	"garmentedit/internal/middleware"
	"garmentedit/internal/pipeline"
	"garmentedit/internal/providers/vision"
	"garmentedit/internal/storage"
)

func main() {
	// Optional .env
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare output directory")
	}

	// Run records are optional.
	var runs domain.RunRepository
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runRepo := repo.NewRunRepository(infra.NewSQLRunner(dbpool, logger))
		if err := runRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare run table")
		}
		runs = runRepo
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	runner, err := buildPipeline(cfg, logger, store, runs)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}

	app := &handlers.App{
		Pipeline:       runner,
		Artifacts:      store,
		Runs:           runs,
		Logger:         logger,
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		APIKey:          cfg.APIKey,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		OutputDir:       store.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("image_size", cfg.ImageSize).Bool("runs_persisted", runs != nil).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildPipeline(cfg *infra.Config, logger zerolog.Logger, store pipeline.ArtifactStore, runs domain.RunRepository) (*pipeline.Pipeline, error) {
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	visionLogger := logger.With().Str("component", "vision").Logger()
	analyzer, err := vision.NewOpenAIClient(vision.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.VisionModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Temperature:  0.1,
		JSONMode:     true,
		HTTPClient:   httpClient,
		Logger:       &visionLogger,
		OnWarning: func(reason, detail string) {
			visionLogger.Warn().Str("reason", reason).Str("detail", detail).Msg("vision model adjusted")
		},
	})
	if err != nil {
		return nil, err
	}
	visionLogger.Info().Str("model", analyzer.Model()).Msg("vision client ready")

	genLogger := logger.With().Str("component", "imagegen").Logger()
	generator := imagegen.NewOpenAIClient(imagegen.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.ImageModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
		Logger:       &genLogger,
	})

	pipelineLogger := logger.With().Str("component", "pipeline").Logger()
	return pipeline.New(pipeline.Options{
		Normalizer: imaging.NewNormalizer(),
		Presence:   analysis.NewPresenceDetector(analyzer, &pipelineLogger),
		Describer:  analysis.NewGarmentDescriber(analyzer, &pipelineLogger),
		Generator:  generator,
		Width:      cfg.ImageWidth,
		Height:     cfg.ImageHeight,
		Artifacts:  store,
		Runs:       runs,
		Logger:     &pipelineLogger,
	})
}
