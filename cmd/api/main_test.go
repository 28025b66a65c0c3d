package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
	"github.com/quietblocks/quietblocks-api/internal/domain/realtime"
	"github.com/quietblocks/quietblocks-api/internal/domain/reminder"
	"github.com/quietblocks/quietblocks-api/internal/middleware"
	"github.com/quietblocks/quietblocks-api/internal/pkg/jwt"
)

type emptyStore struct{}

func (emptyStore) ListSweepCandidates(ctx context.Context) ([]*quietblock.QuietBlock, error) {
	return nil, nil
}

func (emptyStore) Deactivate(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (emptyStore) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

const testCronSecret = "cron-secret"

func testRouter(t *testing.T) (http.Handler, *jwt.Service) {
	t.Helper()

	jwtService := jwt.NewService("test-secret", time.Hour)
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Shutdown)

	sweeper := reminder.NewSweeper(emptyStore{}, nil, nil, reminder.Config{})

	r := newRouter(routerDeps{
		allowedOrigins: []string{"http://localhost:3000"},
		authMiddleware: middleware.Auth(jwtService),
		wsAuth:         middleware.AuthWithQueryToken(jwtService),
		cronAuth:       middleware.CronAuth(testCronSecret),
		quietBlocks:    quietblock.NewHandler(quietblock.NewService(nil, quietblock.NewLocalLocker()), time.UTC),
		reminders:      reminder.NewHandler(sweeper, time.Minute),
		realtime:       realtime.NewHandler(hub, nil),
		metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
	return r, jwtService
}

func TestRouter_Health(t *testing.T) {
	r, _ := testRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := testRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestRouter_QuietBlocksRequireAuth(t *testing.T) {
	r, _ := testRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/quiet-blocks"},
		{http.MethodPost, "/api/v1/quiet-blocks"},
		{http.MethodGet, "/api/v1/quiet-blocks/" + uuid.NewString()},
		{http.MethodDelete, "/api/v1/quiet-blocks/" + uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestRouter_WebSocketRequiresAuth(t *testing.T) {
	r, _ := testRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestRouter_CronTrigger(t *testing.T) {
	r, _ := testRouter(t)

	t.Run("missing secret", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/cron/reminders", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cron/reminders", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("valid secret runs a sweep", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cron/reminders", nil)
		req.Header.Set("Authorization", "Bearer "+testCronSecret)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var body struct {
			Success bool             `json:"success"`
			Data    reminder.Summary `json:"data"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if !body.Success || body.Data.Processed != 0 || body.Data.Sent != 0 {
			t.Fatalf("unexpected summary: %+v", body)
		}
	})
}
