package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Predictions *PredictionHandler
}

func RegisterRoutes(api gin.IRouter, deps RouterDeps) {
	api.GET("/", deps.Predictions.Root)
	api.GET("/healthz", deps.Predictions.Health)

	api.POST("/predict_disease", deps.Predictions.Disease)
	api.POST("/predict_crop", deps.Predictions.Crop)
	api.POST("/predict_fertilizer", deps.Predictions.Fertilizer)
	api.POST("/predict_yield", deps.Predictions.Yield)
	api.POST("/predict_market", deps.Predictions.Market)
	api.POST("/predict_irrigation", deps.Predictions.Irrigation)
	api.POST("/predict_weather_plan", deps.Predictions.WeatherPlan)
}
