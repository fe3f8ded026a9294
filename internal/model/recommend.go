package model

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/farmconnect/internal/feature"
	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
)

type CropRecommender struct {
	model Classifier
}

func NewCropRecommender(m Classifier) *CropRecommender {
	return &CropRecommender{model: m}
}

func (r *CropRecommender) Available() bool {
	return r != nil && r.model != nil
}

func (r *CropRecommender) Recommend(ctx context.Context, in feature.CropInput) (string, error) {
	if !r.Available() {
		return "", appErr.New(appErr.KindModelUnavailable, "Crop model not loaded")
	}
	vec := feature.EncodeCrop(in)
	raw, err := safePredict(ctx, r.model, Features{Names: vec.Columns(), Values: vec.Values()})
	if err != nil {
		return "", appErr.Wrap(appErr.KindInputProcessingError, "", err)
	}
	return capitalize(raw), nil
}

type FertilizerRecommender struct {
	model  Classifier
	labels *LabelEncoder
}

func NewFertilizerRecommender(m Classifier, labels *LabelEncoder) *FertilizerRecommender {
	return &FertilizerRecommender{model: m, labels: labels}
}

func (r *FertilizerRecommender) Available() bool {
	return r != nil && r.model != nil && r.labels != nil
}

func (r *FertilizerRecommender) Recommend(ctx context.Context, in feature.FertilizerInput) (string, error) {
	if !r.Available() {
		return "", appErr.New(appErr.KindModelUnavailable, "Fertilizer model not loaded")
	}
	if !feature.SoilKnown(in.SoilType) || !feature.CropKnown(in.CropType) {
		logutil.GetLogger(ctx).Warn("unknown fertilizer category, indicator block left empty",
			zap.String("soil_type", in.SoilType),
			zap.String("crop_type", in.CropType),
		)
	}
	frame := feature.EncodeFertilizer(in)
	raw, err := safePredict(ctx, r.model, Features{Names: frame.Columns(), Values: frame.Values()})
	if err != nil {
		return "", appErr.Wrap(appErr.KindInputProcessingError, "", err)
	}
	label, err := r.labels.InverseTransform(raw)
	if err != nil {
		return "", appErr.Wrap(appErr.KindInputProcessingError, "", err)
	}
	return strings.ToUpper(label), nil
}

func safePredict(ctx context.Context, m Classifier, f Features) (label string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("model %s panicked: %v", m.Name(), rec)
		}
	}()
	return m.Predict(ctx, f)
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
