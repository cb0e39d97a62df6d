package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-candy/internal/common"
)

// NewLogger builds the process logger. format is "json" (default) or
// "console"; an unknown level falls back to info.
func NewLogger(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if f := strings.ToLower(strings.TrimSpace(format)); f == "console" || f == "text" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "backend-candy").Logger()
}

// RequestLogger writes one access line per request and puts a request-scoped
// logger on the context for zerolog.Ctx.
type RequestLogger struct {
	Logger zerolog.Logger
}

func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lc := l.Logger.With().Str("request_id", middleware.GetReqID(ctx))
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			lc = lc.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		reqLog := lc.Logger()
		r = r.WithContext(reqLog.WithContext(ctx))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := statusOf(ww)
		if quietPath(r.URL.Path) && status < http.StatusInternalServerError {
			return
		}

		evt := reqLog.WithLevel(levelFor(status)).
			Str("method", r.Method).
			Str("route", RouteLabel(r)).
			Str("path", r.URL.Path).
			Int("status", status).
			Float64("duration_ms", DurationMillis(time.Since(start))).
			Int("bytes", ww.BytesWritten()).
			Str("ip", common.ClientIP(r))
		if uid, ok := common.UserID(r.Context()); ok && uid != "" {
			evt = evt.Str("user_id", uid)
		}
		if role, ok := common.Role(r.Context()); ok {
			evt = evt.Str("role", role)
		}
		if ua := r.UserAgent(); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
