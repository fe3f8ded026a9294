package service

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/farmconnect/internal/ai"
	"github.com/xxxsen/farmconnect/internal/feature"
	"github.com/xxxsen/farmconnect/internal/model"
	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/prompt"
)

var ErrAIUnavailable = ai.ErrUnavailable

// PredictionService routes each use case to local inference or the remote
// generative backend. All fields are set once at construction.
type PredictionService struct {
	crop       *model.CropRecommender
	fertilizer *model.FertilizerRecommender
	generator  ai.IGenerator
}

func NewPredictionService(models *model.Set, generator ai.IGenerator) *PredictionService {
	if models == nil {
		models = &model.Set{}
	}
	return &PredictionService{
		crop:       model.NewCropRecommender(models.Crop),
		fertilizer: model.NewFertilizerRecommender(models.Fertilizer, models.FertilizerLabels),
		generator:  generator,
	}
}

type Status struct {
	CropModel       bool `json:"crop_model"`
	FertilizerModel bool `json:"fertilizer_model"`
	Remote          bool `json:"remote"`
}

func (s *PredictionService) Status() Status {
	return Status{
		CropModel:       s.crop.Available(),
		FertilizerModel: s.fertilizer.Available(),
		Remote:          s.generator != nil,
	}
}

func (s *PredictionService) RecommendCrop(ctx context.Context, in feature.CropInput) (string, error) {
	return s.crop.Recommend(ctx, in)
}

func (s *PredictionService) RecommendFertilizer(ctx context.Context, in feature.FertilizerInput) (string, error) {
	return s.fertilizer.Recommend(ctx, in)
}

func (s *PredictionService) PredictYield(ctx context.Context, in prompt.YieldInput) (string, error) {
	return s.generate(ctx, "yield", prompt.Yield(in))
}

func (s *PredictionService) PredictMarket(ctx context.Context, in prompt.MarketInput) (string, error) {
	return s.generate(ctx, "market", prompt.Market(in))
}

func (s *PredictionService) PredictIrrigation(ctx context.Context, in prompt.IrrigationInput) (string, error) {
	return s.generate(ctx, "irrigation", prompt.Irrigation(in))
}

func (s *PredictionService) PlanWeather(ctx context.Context, in prompt.WeatherInput) (string, error) {
	return s.generate(ctx, "weather_plan", prompt.WeatherPlan(in))
}

// DiagnoseDisease sends the uploaded leaf image to the backend.
func (s *PredictionService) DiagnoseDisease(ctx context.Context, image []byte) (string, error) {
	if s.generator == nil {
		return "", appErr.New(appErr.KindModelUnavailable, "Gemini model not loaded")
	}
	mimeType, err := detectImage(image)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, "disease", prompt.Disease(image, mimeType))
}

func detectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", appErr.New(appErr.KindInputProcessingError, "Error processing image: empty file")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", appErr.New(appErr.KindInputProcessingError, "Error processing image: cannot identify image file ("+mt.String()+")")
	}
	mimeType, _, _ := strings.Cut(mt.String(), ";")
	return mimeType, nil
}

func (s *PredictionService) generate(ctx context.Context, useCase string, payload prompt.Payload) (string, error) {
	if s.generator == nil {
		return "", appErr.New(appErr.KindModelUnavailable, "Gemini model is not initialized. Check API key and configuration.")
	}
	logger := logutil.GetLogger(ctx).With(zap.String("use_case", useCase), zap.String("generator", s.generator.Name()))
	text, err := s.generator.Generate(ctx, payload)
	if err != nil {
		logger.Error("remote prediction failed", zap.String("kind", string(appErr.KindOf(err))), zap.Error(err))
		return "", err
	}
	logger.Debug("remote prediction done", zap.Int("chars", len(text)))
	return text, nil
}
