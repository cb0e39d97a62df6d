package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	redis "github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// request holding a key runs; repeats get 409 with the status the first one
// finished with (or "pending" while it is still running).
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func idemKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + strings.TrimSpace(key)))
	return "idem:" + hex.EncodeToString(sum[:])
}

func (i Idem) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return 24 * time.Hour
}

// Middleware enforces idempotency for write endpoints. A key is released
// again when the handler fails with a 5xx so the client can retry.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if strings.TrimSpace(header) == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := idemKey(r, header)
		ok, err := i.R.SetNX(r.Context(), key, idemPending, i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store error", nil)
			return
		}
		if !ok {
			prior, _ := i.R.Get(r.Context(), key).Result()
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", map[string]string{"firstStatus": prior})
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		finished := false
		defer func() {
			if finished {
				return
			}
			// handler panicked; keep the key but let it expire
			_ = i.R.Expire(context.Background(), key, i.ttl()).Err()
		}()
		next.ServeHTTP(ww, r)
		finished = true

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ctx := context.WithoutCancel(r.Context())
		if status >= http.StatusInternalServerError {
			_ = i.R.Del(ctx, key).Err()
			return
		}
		_ = i.R.Set(ctx, key, strconv.Itoa(status), redis.KeepTTL).Err()
	})
}
