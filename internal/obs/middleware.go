package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HTTPObs feeds HTTPMetrics from the request lifecycle.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	if o.Metrics == nil {
		return next
	}
	m := o.Metrics
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		next.ServeHTTP(ww, r)

		route := RouteLabel(r)
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(statusOf(ww))).Inc()
		m.Latency.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
		if m.ResponseBytes != nil {
			m.ResponseBytes.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
		}
	})
}

// TracingMiddleware opens a server span per request. The span is renamed to
// "<METHOD> <route>" once routing has run, since the pattern is unknown when
// otelhttp starts it.
func TracingMiddleware(next http.Handler) http.Handler {
	named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		trace.SpanFromContext(r.Context()).SetName(r.Method + " " + RouteLabel(r))
	})
	return otelhttp.NewHandler(named, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !quietPath(r.URL.Path)
		}),
	)
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

// quietPath reports probe and scrape endpoints that stay out of traces and
// access logs.
func quietPath(path string) bool {
	switch path {
	case "/metrics", "/health/live", "/health/ready":
		return true
	}
	return false
}
