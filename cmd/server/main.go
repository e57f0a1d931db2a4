package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/leaf-doctor/internal/cache"
	"github.com/Brownie44l1/leaf-doctor/internal/config"
	"github.com/Brownie44l1/leaf-doctor/internal/cure"
	"github.com/Brownie44l1/leaf-doctor/internal/diagnosis"
	"github.com/Brownie44l1/leaf-doctor/internal/handlers"
	"github.com/Brownie44l1/leaf-doctor/internal/imaging"
	"github.com/Brownie44l1/leaf-doctor/internal/logger"
	"github.com/Brownie44l1/leaf-doctor/internal/model"
	"github.com/Brownie44l1/leaf-doctor/internal/upload"
)

func main() {
	envErr := godotenv.Load()

	// Get the project root directory
	root, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get working directory")
	}

	// If running from cmd/server, go up two levels
	if filepath.Base(root) == "server" {
		root = filepath.Join(root, "../..")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = filepath.Join(root, "config", "config.toml")
	}
	cfg, err := config.Load(cfgPath, root)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if envErr != nil {
		log.Info().Msg("no .env file found, using defaults")
	}

	meta, err := model.LoadMetadata(cfg.Model.MetadataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model metadata")
	}
	classes, err := model.LoadClassIndex(cfg.Model.ClassIndicesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load class indices")
	}
	cures, err := cure.LoadTable(cfg.Cures.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load cures")
	}

	loader, err := imaging.NewLoader(meta.ImageSize, imaging.Layout(meta.Layout))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid model metadata")
	}
	if loader.TensorLen() != meta.InputLen() {
		log.Fatal().
			Int("image_values", loader.TensorLen()).
			Int("input_values", meta.InputLen()).
			Msg("image size does not match model input shape")
	}
	if err := meta.CheckClasses(classes); err != nil {
		log.Fatal().Err(err).Msg("class index does not match model output shape")
	}

	log.Info().Str("path", cfg.Model.Path).Msg("loading model")
	session, err := model.NewSession(cfg.Model.Path, cfg.Model.SharedLibraryPath, meta)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model session")
	}
	defer session.Close()

	store, err := upload.NewStore(cfg.Uploads.Dir, cfg.Uploads.Save)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload store")
	}

	classifier := model.NewClassifier(session, classes, cfg.Model.Threshold)
	results := cache.New(cfg.Cache.SizeBytes, cfg.Cache.TTLSeconds)
	svc := diagnosis.NewService(loader, classifier, cure.NewResolver(cures), results)

	router, err := handlers.NewRouter(handlers.NewHandler(svc, store, cfg.Server.MaxUploadBytes), cfg.Server.AllowedOrigins)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Int("classes", classes.Len()).
		Int("cure_entries", len(cures)).
		Float32("threshold", classifier.Threshold()).
		Msg("server starting")
	log.Info().Msg("endpoints: GET / | GET /health | GET /api/plants | POST /predict | POST /api/predict")

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
