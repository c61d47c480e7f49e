package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saltline-charters/api/internal/platform/httpx"
	"github.com/saltline-charters/api/internal/services"
)

// WeatherHandlers serves the charter comfort summary for the booking page.
type WeatherHandlers struct {
	weather services.WeatherService
}

// NewWeatherHandlers constructs the weather handlers.
func NewWeatherHandlers(weather services.WeatherService) *WeatherHandlers {
	return &WeatherHandlers{weather: weather}
}

// Routes registers the weather endpoint.
func (h *WeatherHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.comfortReport)
}

func (h *WeatherHandlers) comfortReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.weather == nil {
		httpx.WriteError(ctx, w, httpx.NewError("weather_unavailable", "weather service unavailable", http.StatusServiceUnavailable))
		return
	}

	day := strings.TrimSpace(r.URL.Query().Get("day"))
	report, err := h.weather.ComfortReport(ctx, day)
	if err != nil {
		writeWeatherError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildComfortReportPayload(report))
}

type comfortReportPayload struct {
	Label       string          `json:"label"`
	Score       int             `json:"score"`
	Forecast    forecastPayload `json:"forecast"`
	GeneratedAt string          `json:"generated_at"`
}

type forecastPayload struct {
	Day         string  `json:"day"`
	WindKnots   float64 `json:"wind_knots"`
	GustKnots   float64 `json:"gust_knots"`
	WaveHeightM float64 `json:"wave_height_m"`
	AirTempC    float64 `json:"air_temp_c"`
	WaterTempC  float64 `json:"water_temp_c"`
	Summary     string  `json:"summary,omitempty"`
	RetrievedAt string  `json:"retrieved_at"`
}

func buildComfortReportPayload(report services.ComfortReport) comfortReportPayload {
	return comfortReportPayload{
		Label: string(report.Label),
		Score: report.Score,
		Forecast: forecastPayload{
			Day:         report.Snapshot.Day,
			WindKnots:   report.Snapshot.WindKnots,
			GustKnots:   report.Snapshot.GustKnots,
			WaveHeightM: report.Snapshot.WaveHeightM,
			AirTempC:    report.Snapshot.AirTempC,
			WaterTempC:  report.Snapshot.WaterTempC,
			Summary:     report.Snapshot.Summary,
			RetrievedAt: formatTime(report.Snapshot.RetrievedAt),
		},
		GeneratedAt: formatTime(report.GeneratedAt),
	}
}

func writeWeatherError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrWeatherInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWeatherUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("weather_unavailable", "forecast temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("weather_error", "failed to load forecast", http.StatusInternalServerError))
	}
}
