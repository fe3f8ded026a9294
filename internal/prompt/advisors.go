package prompt

import (
	"math"
	"strconv"
	"strings"
)

const (
	DiseaseSystem = "You are a plant pathologist. Analyze the image of the plant leaf. " +
		"Identify the plant and the disease, if any. " +
		"Respond *only* with the plant name and disease name, formatted like: " +
		"'Plant: [Plant Name], Disease: [Disease Name]'. " +
		"If the plant is healthy, respond with 'Disease: Healthy'."

	YieldSystem = "You are an agricultural expert. A farmer needs a yield prediction. " +
		"Based on the following data, provide a concise, one-sentence prediction. " +
		"Start your response with 'Estimated Yield:'."

	MarketSystem = "You are an agricultural market analyst. A farmer needs a price forecast. " +
		"Based on the following data, provide a concise, one-sentence prediction. " +
		"Start your response with 'Market Forecast:'."

	IrrigationSystem = "You are an irrigation specialist. A farmer needs a watering recommendation. " +
		"Based on the following data, provide a simple, actionable, one-sentence recommendation. " +
		"Start your response with 'Irrigation Advice:'."

	WeatherPlanSystem = "You are a farm planning assistant. A farmer needs a 7-day operations plan. " +
		"Based on their location and the provided weather forecast data, " +
		"provide a concise, actionable, 7-day plan as a simple bulleted list. " +
		"Advise on ideal times for planting, irrigation, or harvesting based on the forecast."
)

type YieldInput struct {
	Location string
	CropType string
	Area     float64
	SoilType string
}

type MarketInput struct {
	CropType       string
	MarketLocation string
	Timeframe      string
}

type IrrigationInput struct {
	CropType string
	SoilType string
	LastRain int
	Temp     float64
}

type WeatherInput struct {
	Location     string
	ForecastData string
}

// formatFloat uses shortest digits, a trailing ".0" for whole numbers and
// exponent notation outside [1e-4, 1e16): 2 -> "2.0", 1e16 -> "1e+16".
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

func Yield(in YieldInput) Payload {
	return Text(YieldSystem, Fields{
		{Key: "Location", Value: in.Location},
		{Key: "Crop", Value: in.CropType},
		{Key: "Area", Value: formatFloat(in.Area) + " hectares"},
		{Key: "Soil", Value: in.SoilType},
	})
}

func Market(in MarketInput) Payload {
	return Text(MarketSystem, Fields{
		{Key: "Crop", Value: in.CropType},
		{Key: "Market", Value: in.MarketLocation},
		{Key: "Timeframe", Value: in.Timeframe},
	})
}

func Irrigation(in IrrigationInput) Payload {
	return Text(IrrigationSystem, Fields{
		{Key: "Crop", Value: in.CropType},
		{Key: "Soil", Value: in.SoilType},
		{Key: "Days since last rain/irrigation", Value: strconv.Itoa(in.LastRain)},
		{Key: "Current Temperature", Value: formatFloat(in.Temp) + "°C"},
	})
}

// WeatherPlan puts the forecast block on its own line below its label.
func WeatherPlan(in WeatherInput) Payload {
	return Text(WeatherPlanSystem, Fields{
		{Key: "Location", Value: in.Location},
		{Key: "7-Day Weather Forecast Data", Value: "\n" + in.ForecastData},
	})
}

func Disease(image []byte, mimeType string) Payload {
	return Image(DiseaseSystem, image, mimeType)
}
