package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
)

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	flush, err := InitSentry("", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flush()
}

func TestHandleErrorWritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(context.Background(), w, http.StatusInternalServerError, "SWEEP_FAILED", "Sweep failed", errors.New("db down"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == nil || body.Error.Code != "SWEEP_FAILED" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestReportIgnoresNil(t *testing.T) {
	Report(context.Background(), nil, "nothing")
}
