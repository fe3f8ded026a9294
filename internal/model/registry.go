package model

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/farmconnect/internal/artifact"
	"github.com/xxxsen/farmconnect/internal/config"
)

// Set holds the models loaded at startup. It is never mutated after Load
// returns, so handlers read it concurrently without locking. A nil field means
// that model failed to load.
type Set struct {
	Crop             Classifier
	Fertilizer       Classifier
	FertilizerLabels *LabelEncoder
}

// Load reads every configured model. Failures are logged and leave the slot
// nil; Load itself never fails.
func Load(ctx context.Context, store artifact.Store, cfg config.ModelsConfig) *Set {
	set := &Set{}
	var g errgroup.Group
	g.Go(func() error {
		m, err := loadClassifier(ctx, store, "crop", cfg.Crop)
		logLoad(ctx, "crop", describe(cfg.Crop), err)
		set.Crop = m
		return nil
	})
	g.Go(func() error {
		m, err := loadClassifier(ctx, store, "fertilizer", cfg.Fertilizer)
		logLoad(ctx, "fertilizer", describe(cfg.Fertilizer), err)
		set.Fertilizer = m
		return nil
	})
	g.Go(func() error {
		enc, err := loadLabelEncoder(ctx, store, cfg.LabelEncoder)
		logLoad(ctx, "label_encoder", cfg.LabelEncoder, err)
		set.FertilizerLabels = enc
		return nil
	})
	_ = g.Wait()
	return set
}

func describe(src config.ModelSource) string {
	if src.Endpoint != "" {
		return src.Endpoint
	}
	return src.Artifact
}

func logLoad(ctx context.Context, name, source string, err error) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", name), zap.String("source", source))
	if err != nil {
		logger.Error("load model failed, endpoints depending on it are disabled", zap.Error(err))
		return
	}
	logger.Info("model loaded")
}

func loadClassifier(ctx context.Context, store artifact.Store, name string, src config.ModelSource) (Classifier, error) {
	if src.Endpoint != "" {
		return NewRPCClassifier(name, src.Endpoint, time.Duration(src.TimeoutMs)*time.Millisecond), nil
	}
	if src.Artifact == "" {
		return nil, fmt.Errorf("no artifact configured")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	data, err := artifact.ReadAll(ctx, store, src.Artifact)
	if err != nil {
		return nil, err
	}
	forest, err := ParseForest(data)
	if err != nil {
		return nil, err
	}
	if forest.ModelName == "" {
		forest.ModelName = name
	}
	return forest, nil
}

func loadLabelEncoder(ctx context.Context, store artifact.Store, key string) (*LabelEncoder, error) {
	if key == "" {
		return nil, fmt.Errorf("no artifact configured")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	data, err := artifact.ReadAll(ctx, store, key)
	if err != nil {
		return nil, err
	}
	return ParseLabelEncoder(data)
}
