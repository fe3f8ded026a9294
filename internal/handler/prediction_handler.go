package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/farmconnect/internal/feature"
	appErr "github.com/xxxsen/farmconnect/internal/pkg/errors"
	"github.com/xxxsen/farmconnect/internal/pkg/response"
	"github.com/xxxsen/farmconnect/internal/prompt"
	"github.com/xxxsen/farmconnect/internal/service"
)

type PredictionHandler struct {
	predictions    *service.PredictionService
	maxUploadBytes int64
}

func NewPredictionHandler(predictions *service.PredictionService, maxUploadBytes int64) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, maxUploadBytes: maxUploadBytes}
}

// Pointer fields make "required" reject missing keys while still accepting 0.
type cropRequest struct {
	Nitrogen    *float64 `json:"nitrogen" binding:"required"`
	Phosphorus  *float64 `json:"phosphorus" binding:"required"`
	Potassium   *float64 `json:"potassium" binding:"required"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
	PH          *float64 `json:"ph" binding:"required"`
	Rainfall    *float64 `json:"rainfall" binding:"required"`
}

type fertilizerRequest struct {
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
	Moisture    *float64 `json:"moisture" binding:"required"`
	Nitrogen    *float64 `json:"nitrogen" binding:"required"`
	Potassium   *float64 `json:"potassium" binding:"required"`
	Phosphorous *float64 `json:"phosphorous" binding:"required"`
	SoilType    *string  `json:"soil_type" binding:"required"`
	CropType    *string  `json:"crop_type" binding:"required"`
}

type yieldRequest struct {
	Location *string  `json:"location" binding:"required"`
	CropType *string  `json:"crop_type" binding:"required"`
	Area     *float64 `json:"area" binding:"required"`
	SoilType *string  `json:"soil_type" binding:"required"`
}

type marketRequest struct {
	CropType       *string `json:"crop_type" binding:"required"`
	MarketLocation *string `json:"market_location" binding:"required"`
	Timeframe      *string `json:"timeframe" binding:"required"`
}

type irrigationRequest struct {
	CropType *string  `json:"crop_type" binding:"required"`
	SoilType *string  `json:"soil_type" binding:"required"`
	LastRain *int     `json:"last_rain" binding:"required"`
	Temp     *float64 `json:"temp" binding:"required"`
}

type weatherRequest struct {
	Location     *string `json:"location" binding:"required"`
	ForecastData *string `json:"forecast_data" binding:"required"`
}

func (h *PredictionHandler) Root(c *gin.Context) {
	response.Success(c, gin.H{"message": "FarmConnect API is running!"})
}

func (h *PredictionHandler) Health(c *gin.Context) {
	response.Success(c, h.predictions.Status())
}

func (h *PredictionHandler) Crop(c *gin.Context) {
	var req cropRequest
	if !bindJSON(c, &req) {
		return
	}
	crop, err := h.predictions.RecommendCrop(c.Request.Context(), feature.CropInput{
		Nitrogen:    *req.Nitrogen,
		Phosphorus:  *req.Phosphorus,
		Potassium:   *req.Potassium,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		PH:          *req.PH,
		Rainfall:    *req.Rainfall,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"crop": crop})
}

func (h *PredictionHandler) Fertilizer(c *gin.Context) {
	var req fertilizerRequest
	if !bindJSON(c, &req) {
		return
	}
	fertilizer, err := h.predictions.RecommendFertilizer(c.Request.Context(), feature.FertilizerInput{
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		Moisture:    *req.Moisture,
		Nitrogen:    *req.Nitrogen,
		Potassium:   *req.Potassium,
		Phosphorous: *req.Phosphorous,
		SoilType:    *req.SoilType,
		CropType:    *req.CropType,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"fertilizer": fertilizer})
}

func (h *PredictionHandler) Yield(c *gin.Context) {
	var req yieldRequest
	if !bindJSON(c, &req) {
		return
	}
	h.writePrediction(c)(h.predictions.PredictYield(c.Request.Context(), prompt.YieldInput{
		Location: *req.Location,
		CropType: *req.CropType,
		Area:     *req.Area,
		SoilType: *req.SoilType,
	}))
}

func (h *PredictionHandler) Market(c *gin.Context) {
	var req marketRequest
	if !bindJSON(c, &req) {
		return
	}
	h.writePrediction(c)(h.predictions.PredictMarket(c.Request.Context(), prompt.MarketInput{
		CropType:       *req.CropType,
		MarketLocation: *req.MarketLocation,
		Timeframe:      *req.Timeframe,
	}))
}

func (h *PredictionHandler) Irrigation(c *gin.Context) {
	var req irrigationRequest
	if !bindJSON(c, &req) {
		return
	}
	h.writePrediction(c)(h.predictions.PredictIrrigation(c.Request.Context(), prompt.IrrigationInput{
		CropType: *req.CropType,
		SoilType: *req.SoilType,
		LastRain: *req.LastRain,
		Temp:     *req.Temp,
	}))
}

func (h *PredictionHandler) WeatherPlan(c *gin.Context) {
	var req weatherRequest
	if !bindJSON(c, &req) {
		return
	}
	h.writePrediction(c)(h.predictions.PlanWeather(c.Request.Context(), prompt.WeatherInput{
		Location:     *req.Location,
		ForecastData: *req.ForecastData,
	}))
}

func (h *PredictionHandler) writePrediction(c *gin.Context) func(string, error) {
	return func(text string, err error) {
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, gin.H{"prediction": text})
	}
}

func (h *PredictionHandler) Disease(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, "file too large, max "+formatUploadLimit(h.maxUploadBytes))
			return
		}
		handleError(c, appErr.Wrap(appErr.KindInvalidInput, "file is required", err))
		return
	}
	opened, err := file.Open()
	if err != nil {
		handleError(c, appErr.Wrap(appErr.KindInputProcessingError, "Error processing image", err))
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		handleError(c, appErr.Wrap(appErr.KindInputProcessingError, "Error processing image", err))
		return
	}
	disease, err := h.predictions.DiagnoseDisease(c.Request.Context(), data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"disease": disease})
}
