// Package middleware contains the HTTP middleware chain: request-id
// tagging, request-side contract validation, and response-side contract
// normalisation.
//
// Mounting order matters and is load-bearing:
//
//	r.Use(middleware.RequestID(log))
//	r.Use(middleware.RequestValidation(log))
//	r.Use(middleware.ResponseValidation(log))
//
// RequestValidation always runs to completion (or short-circuits)
// before any handler executes; ResponseValidation always sees the final
// handler output before a byte reaches the network. A request rejected
// by RequestValidation never enters the response normaliser, exactly
// like a response written by an ordinary handler bypasses request
// validation.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const loggerKey ctxKey = iota

// RequestID assigns every request a uuid, echoes it in the
// X-Request-Id response header, and stores a logger pre-tagged with it
// in the request context for the rest of the chain.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)

			reqLog := log.With(slog.String("request_id", id))
			reqLog.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			ctx := context.WithValue(r.Context(), loggerKey, reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger returns the request-scoped logger placed in the context by
// RequestID, or the fallback when that middleware did not run.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return fallback
}

// isAPIPath reports whether a path is governed by the API contract.
// Only /api and /api/... are; everything else passes both middlewares
// untouched.
func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
