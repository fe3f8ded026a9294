package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/farmconnect/internal/feature"
	"github.com/xxxsen/farmconnect/internal/model"
	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/prompt"
)

type stubGenerator struct {
	payloads []prompt.Payload
	reply    string
	err      error
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(ctx context.Context, p prompt.Payload) (string, error) {
	g.payloads = append(g.payloads, p)
	return g.reply, g.err
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestPredictionService_Status(t *testing.T) {
	svc := NewPredictionService(nil, nil)
	require.Equal(t, Status{}, svc.Status())

	crop := model.ClassifierFunc(func(ctx context.Context, f model.Features) (string, error) { return "rice", nil })
	svc = NewPredictionService(&model.Set{Crop: crop}, &stubGenerator{})
	require.Equal(t, Status{CropModel: true, Remote: true}, svc.Status())
}

func TestPredictionService_RemoteUnavailable(t *testing.T) {
	svc := NewPredictionService(nil, nil)
	_, err := svc.PredictYield(context.Background(), prompt.YieldInput{})
	require.True(t, appErr.IsKind(err, appErr.KindModelUnavailable))
	_, err = svc.DiagnoseDisease(context.Background(), pngHeader)
	require.True(t, appErr.IsKind(err, appErr.KindModelUnavailable))
}

func TestPredictionService_RemoteUseCases(t *testing.T) {
	gen := &stubGenerator{reply: "Estimated Yield: 3 t/ha"}
	svc := NewPredictionService(nil, gen)
	ctx := context.Background()

	out, err := svc.PredictYield(ctx, prompt.YieldInput{Location: "Punjab", CropType: "Wheat", Area: 2, SoilType: "Loamy"})
	require.NoError(t, err)
	require.Equal(t, "Estimated Yield: 3 t/ha", out)
	_, err = svc.PredictMarket(ctx, prompt.MarketInput{CropType: "Onion"})
	require.NoError(t, err)
	_, err = svc.PredictIrrigation(ctx, prompt.IrrigationInput{CropType: "Rice"})
	require.NoError(t, err)
	_, err = svc.PlanWeather(ctx, prompt.WeatherInput{Location: "Pune"})
	require.NoError(t, err)
	require.Len(t, gen.payloads, 4)
	require.Contains(t, gen.payloads[0].Text, prompt.YieldSystem)
	require.Contains(t, gen.payloads[3].Text, prompt.WeatherPlanSystem)

	gen.err = appErr.New(appErr.KindBackendBlocked, "blocked")
	_, err = svc.PredictMarket(ctx, prompt.MarketInput{})
	require.True(t, appErr.IsKind(err, appErr.KindBackendBlocked))
}

func TestPredictionService_DiagnoseDisease(t *testing.T) {
	gen := &stubGenerator{reply: "Disease: Healthy"}
	svc := NewPredictionService(nil, gen)

	out, err := svc.DiagnoseDisease(context.Background(), pngHeader)
	require.NoError(t, err)
	require.Equal(t, "Disease: Healthy", out)
	require.Equal(t, "image/png", gen.payloads[0].MIMEType)
	require.Equal(t, pngHeader, gen.payloads[0].Image)

	_, err = svc.DiagnoseDisease(context.Background(), []byte("just some text"))
	require.True(t, appErr.IsKind(err, appErr.KindInputProcessingError))
	_, err = svc.DiagnoseDisease(context.Background(), nil)
	require.True(t, appErr.IsKind(err, appErr.KindInputProcessingError))
	require.Len(t, gen.payloads, 1)
}

func TestPredictionService_LocalPaths(t *testing.T) {
	crop := model.ClassifierFunc(func(ctx context.Context, f model.Features) (string, error) { return "rice", nil })
	fert := model.ClassifierFunc(func(ctx context.Context, f model.Features) (string, error) { return "0", nil })
	svc := NewPredictionService(&model.Set{
		Crop:             crop,
		Fertilizer:       fert,
		FertilizerLabels: &model.LabelEncoder{Classes: []string{"Urea"}},
	}, nil)

	out, err := svc.RecommendCrop(context.Background(), feature.CropInput{})
	require.NoError(t, err)
	require.Equal(t, "Rice", out)

	out, err = svc.RecommendFertilizer(context.Background(), feature.FertilizerInput{SoilType: "Red", CropType: "Paddy"})
	require.NoError(t, err)
	require.Equal(t, "UREA", out)
}
