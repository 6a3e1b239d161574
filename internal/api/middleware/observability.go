package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/maitricare/emergency-locator/internal/infrastructure/observability"
)

// ObservabilityMiddleware records a span plus request count and duration
// metrics for every HTTP request.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/maitricare/emergency-locator/internal/api")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
				),
			)
			defer span.End()

			start := time.Now()
			rw := &observedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))

			if metrics != nil {
				attrs := metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.Int("http.status_code", rw.statusCode),
				)
				metrics.RequestCount.Add(ctx, 1, attrs)
				metrics.RequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
			}
		})
	}
}

type observedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *observedResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *observedResponseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
