package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-candy/internal/common"
)

var draining atomic.Bool

// SetReady flips readiness. The API marks itself not ready when shutdown
// begins so load balancers stop routing to it.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Probe checks one dependency.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Handler serves liveness and readiness.
type Handler struct {
	Probes []Probe
}

// Live reports that the process is up.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe in parallel and reports 503 if any fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	if len(h.Probes) == 0 {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no probes configured"})
		return
	}

	results := make(map[string]string, len(h.Probes)+1)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range h.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			timeout := p.Timeout
			if timeout <= 0 {
				timeout = 500 * time.Millisecond
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			status := "ok"
			if err := p.Check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			results[p.Name] = status
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	code := http.StatusOK
	for _, status := range results {
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
	}
	common.JSON(w, code, results)
}
