package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/farmconnect/internal/ai"
	"github.com/xxxsen/farmconnect/internal/artifact"
	"github.com/xxxsen/farmconnect/internal/config"
	"github.com/xxxsen/farmconnect/internal/feature"
	"github.com/xxxsen/farmconnect/internal/handler"
	"github.com/xxxsen/farmconnect/internal/middleware"
	"github.com/xxxsen/farmconnect/internal/model"
	"github.com/xxxsen/farmconnect/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "farmconnect",
		Short: "farmconnect prediction server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is normal outside local development
			_ = godotenv.Load()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run farmconnect server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	rootCmd.AddCommand(runCmd, newPredictCropCmd(&configPath), newPredictFertilizerCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

func loadModels(ctx context.Context, cfg *config.Config) (*model.Set, error) {
	store, err := artifact.New(cfg.ArtifactStore)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	return model.Load(ctx, store, cfg.Models), nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (ai.IGenerator, error) {
	gen, err := ai.NewGeminiGroup(ai.GeminiConfig{
		APIKey:        cfg.Gemini.ResolveAPIKey(),
		Model:         cfg.Gemini.Model,
		MaxAttempts:   cfg.Gemini.MaxAttempts,
		BaseDelayMs:   cfg.Gemini.BaseDelayMs,
		CallTimeoutMs: cfg.Gemini.CallTimeoutMs,
	}, cfg.Gemini.FallbackModels)
	if errors.Is(err, ai.ErrUnavailable) {
		logutil.GetLogger(ctx).Warn("gemini api key not set, remote endpoints are disabled",
			zap.String("api_key_env", cfg.Gemini.APIKeyEnv))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	return gen, nil
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("artifact_store", cfg.ArtifactStore.Type),
		zap.String("gemini_model", cfg.Gemini.Model),
	)

	models, err := loadModels(ctx, cfg)
	if err != nil {
		return err
	}
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	predictionService := service.NewPredictionService(models, generator)

	deps := handler.RouterDeps{
		Predictions: handler.NewPredictionHandler(predictionService, cfg.MaxUploadBytes),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.TraceHeader(),
			middleware.CORS(cfg.CORSAllowlist),
			middleware.RateLimit(time.Duration(cfg.RateLimitMs)*time.Millisecond),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func newPredictCropCmd(configPath *string) *cobra.Command {
	var in feature.CropInput
	cmd := &cobra.Command{
		Use:   "predict-crop",
		Short: "recommend a crop with the local model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			models, err := loadModels(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			crop, err := service.NewPredictionService(models, nil).RecommendCrop(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), crop)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&in.Nitrogen, "nitrogen", 0, "soil nitrogen")
	flags.Float64Var(&in.Phosphorus, "phosphorus", 0, "soil phosphorus")
	flags.Float64Var(&in.Potassium, "potassium", 0, "soil potassium")
	flags.Float64Var(&in.Temperature, "temperature", 0, "temperature in celsius")
	flags.Float64Var(&in.Humidity, "humidity", 0, "relative humidity")
	flags.Float64Var(&in.PH, "ph", 0, "soil ph")
	flags.Float64Var(&in.Rainfall, "rainfall", 0, "rainfall in mm")
	return cmd
}

func newPredictFertilizerCmd(configPath *string) *cobra.Command {
	var in feature.FertilizerInput
	cmd := &cobra.Command{
		Use:   "predict-fertilizer",
		Short: "recommend a fertilizer with the local model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			models, err := loadModels(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fertilizer, err := service.NewPredictionService(models, nil).RecommendFertilizer(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fertilizer)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&in.Temperature, "temperature", 0, "temperature in celsius")
	flags.Float64Var(&in.Humidity, "humidity", 0, "relative humidity")
	flags.Float64Var(&in.Moisture, "moisture", 0, "soil moisture")
	flags.Float64Var(&in.Nitrogen, "nitrogen", 0, "soil nitrogen")
	flags.Float64Var(&in.Potassium, "potassium", 0, "soil potassium")
	flags.Float64Var(&in.Phosphorous, "phosphorous", 0, "soil phosphorous")
	flags.StringVar(&in.SoilType, "soil-type", "", "soil type, e.g. Loamy")
	flags.StringVar(&in.CropType, "crop-type", "", "crop type, e.g. Wheat")
	return cmd
}
