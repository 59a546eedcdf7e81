package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote", r.RemoteAddr,
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Identify trusts the identity headers set by the upstream auth proxy. A
// request without X-User-ID carries no actor.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			next.ServeHTTP(w, r)
			return
		}
		role := orders.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
		switch role {
		case "":
			role = orders.RoleStaff
		case orders.RoleAdmin, orders.RoleCashier, orders.RoleStaff:
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown role"})
			return
		}
		ctx := orders.WithActor(r.Context(), orders.Actor{UserID: uid, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := orders.ActorFromContext(r.Context()); !ok {
			writeError(w, r, orders.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimiter hands every client IP its own token bucket. Idle buckets are
// dropped after ttl.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*visitor
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*visitor),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
}

func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.clients {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}
	v, ok := l.clients[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
