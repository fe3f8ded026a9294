package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/farmconnect/internal/handler"
	"github.com/xxxsen/farmconnect/internal/middleware"
	"github.com/xxxsen/farmconnect/internal/model"
	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/prompt"
	"github.com/xxxsen/farmconnect/internal/service"
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

type capture struct {
	crop       model.Features
	fertilizer model.Features
}

func setupRouter(t *testing.T, set *model.Set, gen *stubGenerator) http.Handler {
	t.Helper()
	return setupRouterWithLimit(t, set, gen, 1024*1024)
}

func setupRouterWithLimit(t *testing.T, set *model.Set, gen *stubGenerator, maxUploadBytes int64) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var svc *service.PredictionService
	if gen == nil {
		svc = service.NewPredictionService(set, nil)
	} else {
		svc = service.NewPredictionService(set, gen)
	}
	deps := handler.RouterDeps{
		Predictions: handler.NewPredictionHandler(svc, maxUploadBytes),
	}
	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.TraceHeader(),
		),
	)
	require.NoError(t, err)
	return engine
}

func stubModels(c *capture) *model.Set {
	return &model.Set{
		Crop: model.ClassifierFunc(func(ctx context.Context, f model.Features) (string, error) {
			c.crop = f
			return "rice", nil
		}),
		Fertilizer: model.ClassifierFunc(func(ctx context.Context, f model.Features) (string, error) {
			c.fertilizer = f
			return "2", nil
		}),
		FertilizerLabels: &model.LabelEncoder{Classes: []string{"10-26-26", "DAP", "urea"}},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRoot(t *testing.T) {
	h := setupRouter(t, nil, nil)
	w, body := doJSON(t, h, "GET", "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "FarmConnect API is running!", body["message"])

	w, body = doJSON(t, h, "GET", "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["crop_model"])
	require.Equal(t, false, body["remote"])
}

func TestPredictCrop(t *testing.T) {
	c := &capture{}
	h := setupRouter(t, stubModels(c), nil)
	w, body := doJSON(t, h, "POST", "/predict_crop", map[string]interface{}{
		"nitrogen": 90, "phosphorus": 42, "potassium": 43, "temperature": 20.8,
		"humidity": 82, "ph": 6.5, "rainfall": 202,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]interface{}{"crop": "Rice"}, body)
	require.Equal(t, []float64{90, 42, 43, 20.8, 82, 6.5, 202}, c.crop.Values)
}

func TestPredictCrop_ZeroValuesAccepted(t *testing.T) {
	c := &capture{}
	h := setupRouter(t, stubModels(c), nil)
	w, _ := doJSON(t, h, "POST", "/predict_crop", map[string]interface{}{
		"nitrogen": 0, "phosphorus": 0, "potassium": 0, "temperature": 0,
		"humidity": 0, "ph": 0, "rainfall": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPredictCrop_InvalidInput(t *testing.T) {
	h := setupRouter(t, stubModels(&capture{}), nil)
	w, body := doJSON(t, h, "POST", "/predict_crop", map[string]interface{}{"nitrogen": "lots"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotEmpty(t, body["detail"])

	w, _ = doJSON(t, h, "POST", "/predict_crop", map[string]interface{}{"nitrogen": 1})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPredictCrop_ModelUnavailable(t *testing.T) {
	h := setupRouter(t, &model.Set{}, nil)
	w, body := doJSON(t, h, "POST", "/predict_crop", map[string]interface{}{
		"nitrogen": 90, "phosphorus": 42, "potassium": 43, "temperature": 20.8,
		"humidity": 82, "ph": 6.5, "rainfall": 202,
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "Crop model not loaded", body["detail"])
}

func TestPredictFertilizer_Indicators(t *testing.T) {
	c := &capture{}
	h := setupRouter(t, stubModels(c), nil)
	w, body := doJSON(t, h, "POST", "/predict_fertilizer", map[string]interface{}{
		"temperature": 26, "humidity": 52, "moisture": 38, "nitrogen": 37,
		"potassium": 0, "phosphorous": 0, "soil_type": "Loamy", "crop_type": "Wheat",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]interface{}{"fertilizer": "UREA"}, body)

	row := c.fertilizer.Map()
	require.Len(t, row, 22)
	require.Equal(t, 52.0, row["Humidity "])
	for name, v := range row {
		switch {
		case name == "Soil Type_Loamy" || name == "Crop Type_Wheat":
			require.Equal(t, 1.0, v, name)
		case strings.HasPrefix(name, "Soil Type_") || strings.HasPrefix(name, "Crop Type_"):
			require.Equal(t, 0.0, v, name)
		}
	}
}

func TestPredictFertilizer_UnknownCategoryStillPredicts(t *testing.T) {
	c := &capture{}
	h := setupRouter(t, stubModels(c), nil)
	w, _ := doJSON(t, h, "POST", "/predict_fertilizer", map[string]interface{}{
		"temperature": 26, "humidity": 52, "moisture": 38, "nitrogen": 37,
		"potassium": 0, "phosphorous": 0, "soil_type": "Peaty", "crop_type": "Wheat",
	})
	require.Equal(t, http.StatusOK, w.Code)
	row := c.fertilizer.Map()
	for _, soil := range []string{"Black", "Clayey", "Loamy", "Red", "Sandy"} {
		require.Equal(t, 0.0, row["Soil Type_"+soil])
	}
}

func TestRemoteEndpoints(t *testing.T) {
	gen := &stubGenerator{reply: "Estimated Yield: 4 tonnes"}
	h := setupRouter(t, nil, gen)

	cases := []struct {
		path string
		body map[string]interface{}
	}{
		{"/predict_yield", map[string]interface{}{"location": "Punjab", "crop_type": "Wheat", "area": 2, "soil_type": "Loamy"}},
		{"/predict_market", map[string]interface{}{"crop_type": "Onion", "market_location": "Nashik", "timeframe": "1 month"}},
		{"/predict_irrigation", map[string]interface{}{"crop_type": "Rice", "soil_type": "Clayey", "last_rain": 3, "temp": 31}},
		{"/predict_weather_plan", map[string]interface{}{"location": "Pune", "forecast_data": "Mon: rain"}},
	}
	for _, tc := range cases {
		w, body := doJSON(t, h, "POST", tc.path, tc.body)
		require.Equal(t, http.StatusOK, w.Code, tc.path)
		require.Equal(t, map[string]interface{}{"prediction": "Estimated Yield: 4 tonnes"}, body, tc.path)
	}
	require.Len(t, gen.payloads, 4)
	require.Contains(t, gen.payloads[2].Text, "Days since last rain/irrigation: 3")

	w, _ := doJSON(t, h, "POST", "/predict_irrigation", map[string]interface{}{"crop_type": "Rice", "soil_type": "Clayey", "last_rain": 2.5, "temp": 31})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRemoteEndpoints_ErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{appErr.New(appErr.KindBackendBlocked, "Response was blocked by safety settings."), http.StatusUnprocessableEntity},
		{appErr.New(appErr.KindBackendEmpty, "No text content returned from API."), http.StatusBadGateway},
		{appErr.New(appErr.KindTransientBackendError, "Gemini API error"), http.StatusBadGateway},
		{appErr.New(appErr.KindExhaustedRetries, "Gemini API request failed after multiple retries"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		gen := &stubGenerator{err: tc.err}
		h := setupRouter(t, nil, gen)
		w, body := doJSON(t, h, "POST", "/predict_market", map[string]interface{}{"crop_type": "Onion", "market_location": "Nashik", "timeframe": "1 month"})
		require.Equal(t, tc.status, w.Code)
		require.Equal(t, tc.err.Error(), body["detail"])
	}

	h := setupRouter(t, nil, nil)
	w, _ := doJSON(t, h, "POST", "/predict_weather_plan", map[string]interface{}{"location": "Pune", "forecast_data": "x"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func multipartImage(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "leaf.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest("POST", "/predict_disease", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPredictDisease(t *testing.T) {
	gen := &stubGenerator{reply: "Plant: Tomato, Disease: Late blight"}
	h := setupRouter(t, nil, gen)
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartImage(t, "file", png))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Plant: Tomato, Disease: Late blight", body["disease"])
	require.Equal(t, png, gen.payloads[0].Image)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, multipartImage(t, "file", []byte("not an image")))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, multipartImage(t, "upload", png))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPredictDisease_UploadTooLarge(t *testing.T) {
	gen := &stubGenerator{reply: "Disease: Healthy"}
	h := setupRouterWithLimit(t, nil, gen, 1024)
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 50*1024)...)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartImage(t, "file", png))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "file too large, max 1.0 KiB", body["detail"])
	require.Empty(t, gen.payloads)
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	h := setupRouter(t, &model.Set{}, nil)
	req := httptest.NewRequest("POST", "/predict_crop", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "farm-req-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "farm-req-7", w.Header().Get("X-Request-Id"))
}
