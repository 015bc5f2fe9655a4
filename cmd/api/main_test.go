package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meetingsapi/meetings/internal/cache"
	"github.com/meetingsapi/meetings/internal/config"
	"github.com/meetingsapi/meetings/internal/handler"
	"github.com/meetingsapi/meetings/internal/metrics"
	"github.com/meetingsapi/meetings/internal/repository/memstore"
	"github.com/meetingsapi/meetings/internal/service"
)

type denyAll struct{}

func (denyAll) CheckIPRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: false}, nil
}

func newTestRouter(t *testing.T, rateLimited bool) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	recorder := metrics.NewInMemory()
	svc := service.NewMeetingService(store, nil, nil, recorder, logger, nil)

	cfg := &config.Config{
		AppEnv:             "production",
		MaxRequestBodySize: 64,
		RateLimitEnabled:   rateLimited,
		RateLimitRPS:       1,
		RateLimitBurst:     1,
	}

	return setupRouter(routerDeps{
		root:     handler.New(),
		health:   handler.NewHealthHandler(store, nil),
		meetings: handler.NewMeetingHandler(svc, logger),
		metrics:  handler.NewMetricsHandler(recorder),
		limiter:  denyAll{},
		cfg:      cfg,
		logger:   logger,
	})
}

func TestSetupRouter(t *testing.T) {
	r := newTestRouter(t, false)

	tests := []struct {
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/meetings?user=alice@gmail.com", "", http.StatusNotFound},
		{http.MethodPost, "/meetings", `{"title":"` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge},
		{http.MethodGet, "/nowhere", "", http.StatusNotFound},
		{http.MethodPost, "/healthz", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}

func TestSetupRouter_RateLimitScopedToMeetings(t *testing.T) {
	r := newTestRouter(t, true)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings?user=alice@gmail.com", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("meetings status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"postgres://meetings:s3cret@db:5432/meetings", "postgres://meetings@db:5432/meetings"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://meetings:s3cret@db:5432/meetings"
	err := errors.New("cannot connect to " + dsn + " (password=s3cret)")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Fatalf("secret leaked: %s", got)
	}
	if !strings.Contains(got, "postgres://meetings@db:5432/meetings") {
		t.Errorf("redacted URL missing: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
