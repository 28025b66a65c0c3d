package errorhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/quietblocks/quietblocks-api/internal/pkg/logger"
	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
)

// InitSentry configures error reporting. An empty DSN leaves reporting disabled
// and returns a no-op flush.
func InitSentry(dsn, environment string) (flush func(), err error) {
	if dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return func() {}, err
	}

	log.Info().Msg("Sentry error reporting enabled")
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Report logs err and forwards it to Sentry. Safe to call when Sentry is not
// initialised: the SDK drops events without a client.
func Report(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}
	logger.FromContext(ctx).Error().Err(err).Msg(msg)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		hub.CaptureException(err)
	})
}

// ReportPanic forwards a recovered panic value to Sentry.
func ReportPanic(ctx context.Context, recovered interface{}) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.Recover(recovered)
}

// HandleError reports an unexpected error and writes the error envelope.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	if err != nil && status >= http.StatusInternalServerError {
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureException(err)
	}

	response.Error(w, status, code, message)
}
