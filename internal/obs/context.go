package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteLabel names the route a request matched, e.g. "/api/v1/candies/{id}".
// chi fills the route context in place while routing, so middleware that
// wraps the router can call this once the handler has returned. Unmatched
// requests share one label so 404 probes cannot blow up metric cardinality.
func RouteLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if route := rc.RoutePattern(); route != "" && route != "/*" {
			return route
		}
	}
	return "unmatched"
}
