package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/saltline-charters/api/internal/domain"
	"github.com/saltline-charters/api/internal/services"
)

type stubWeatherService struct {
	report  services.ComfortReport
	err     error
	lastDay string
}

func (s *stubWeatherService) ComfortReport(_ context.Context, day string) (services.ComfortReport, error) {
	s.lastDay = day
	if s.err != nil {
		return services.ComfortReport{}, s.err
	}
	return s.report, nil
}

var _ services.WeatherService = (*stubWeatherService)(nil)

func serveWeatherRequest(h *WeatherHandlers, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestComfortReport(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	weather := &stubWeatherService{
		report: services.ComfortReport{
			Label: domain.ComfortIdeal,
			Score: 92,
			Snapshot: services.ForecastSnapshot{
				Day:         "2026-09-01",
				WindKnots:   8,
				WaveHeightM: 0.3,
				Summary:     "glassy",
				RetrievedAt: now,
			},
			GeneratedAt: now,
		},
	}
	handlers := NewWeatherHandlers(weather)

	req := httptest.NewRequest(http.MethodGet, "/?day=2026-09-01", nil)
	rr := serveWeatherRequest(handlers, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if weather.lastDay != "2026-09-01" {
		t.Fatalf("expected day forwarded, got %q", weather.lastDay)
	}

	var body comfortReportPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Label != string(domain.ComfortIdeal) || body.Score != 92 {
		t.Fatalf("unexpected report %+v", body)
	}
	if body.Forecast.Day != "2026-09-01" {
		t.Fatalf("unexpected forecast day %q", body.Forecast.Day)
	}
}

func TestComfortReportUnavailable(t *testing.T) {
	handlers := NewWeatherHandlers(&stubWeatherService{err: services.ErrWeatherUnavailable})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := serveWeatherRequest(handlers, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
