package reminder

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quietblocks/quietblocks-api/internal/pkg/errorhandler"
	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
)

// Handler exposes the sweep to an external poller
type Handler struct {
	sweeper *Sweeper
	timeout time.Duration
	now     func() time.Time
}

// NewHandler creates reminder trigger handler. timeout bounds one sweep;
// zero means no bound.
func NewHandler(sweeper *Sweeper, timeout time.Duration) *Handler {
	return &Handler{sweeper: sweeper, timeout: timeout, now: time.Now}
}

// Trigger handles GET|POST /cron/reminders. The sweep runs to completion even
// if the caller goes away: a send whose mark is cut off would be repeated.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	summary, err := h.sweeper.Sweep(ctx, h.now().UTC())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SWEEP_FAILED", "Reminder sweep failed", err)
		return
	}

	response.OK(w, summary)
}

// Routes returns the trigger router guarded by cronAuth
func (h *Handler) Routes(cronAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(cronAuth)

	r.Get("/reminders", h.Trigger)
	r.Post("/reminders", h.Trigger)

	return r
}
