package handlers

import (
	"context"
	"net/http"
	"time"

	"portfolio/src/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/sirupsen/logrus"
)

type principalKey struct{}

// RequestLogger stores a request scoped logger in the context and logs each completed request.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := logger.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(utils.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":  ww.Status(),
				"elapsed": time.Since(start).String(),
			}).Info("Request served")
		})
	}
}

// Principal resolves the verified token's subject. It must run after jwtauth.Verifier.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			utils.WriteError(w, utils.Unauthorized(err.Error()))
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			utils.WriteError(w, utils.Unauthorized("token has no subject"))
			return
		}
		ctx := r.Context()
		entry := utils.LoggerFromContext(ctx).WithField("principal", sub)
		ctx = utils.WithLogger(ctx, entry)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, principalKey{}, sub)))
	})
}

func principalFrom(r *http.Request) string {
	p, _ := r.Context().Value(principalKey{}).(string)
	return p
}
