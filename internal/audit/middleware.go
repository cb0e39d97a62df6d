package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Recorder audits the mutating requests that pass through it.
type Recorder struct {
	Service *Service
	// IDParam names the chi URL parameter holding the resource id. Defaults to "id".
	IDParam string
	OnError func(error)
}

func (rc Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rc.Service == nil || !rc.Service.Enabled || !mutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := EntryFromRequest(r, status)
		param := rc.IDParam
		if param == "" {
			param = "id"
		}
		entry.ResourceID = chi.URLParam(r, param)

		if err := rc.Service.Record(context.WithoutCancel(r.Context()), entry); err != nil && rc.OnError != nil {
			rc.OnError(err)
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
