package monitoring

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global hub. An empty DSN leaves reporting disabled.
func InitSentry(dsn, environment, version string) error {
	if strings.TrimSpace(dsn) == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          "review-relay@" + version,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	return nil
}

// FlushSentry drains buffered events before the process exits.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with request context attached as extras.
func CaptureError(err error, r *http.Request, extras map[string]interface{}) {
	hub := sentry.CurrentHub()
	if r != nil {
		if h := sentry.GetHubFromContext(r.Context()); h != nil {
			hub = h
		}
	}
	if hub == nil || hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if r != nil {
			scope.SetRequest(r)
			scope.SetTag("http.method", r.Method)
			scope.SetTag("http.route", r.URL.Path)
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

// SentryMiddleware gives every request its own hub clone with filtered headers.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.CurrentHub()
		if hub == nil || hub.Client() == nil {
			next.ServeHTTP(w, r)
			return
		}
		hub = hub.Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("Request", map[string]interface{}{
				"Method":  r.Method,
				"URL":     r.URL.String(),
				"Headers": safeHeaders(r.Header),
			})
		})
		ctx := sentry.SetHubOnContext(r.Context(), hub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func safeHeaders(h http.Header) map[string]interface{} {
	safe := make(map[string]interface{})
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}
