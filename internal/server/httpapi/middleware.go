package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/server/auth"
	"golang.org/x/time/rate"
)

// bearerAuth resolves the Authorization header to a user id in the request
// context.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get(common.AuthorizationHeader)
		token, found := strings.CutPrefix(h, common.BearerPrefix)
		if !found || token == "" {
			WriteError(w, HTTPError{Title: "Unauthorized", Message: "missing token", Status: http.StatusUnauthorized})
			return
		}

		userID, err := s.users.Authenticate(token)
		if err != nil {
			e, _ := errorFrom(err)
			WriteError(w, e)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// userLimiter keeps one token bucket per user.
type userLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &userLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *userLimiter) allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// rateLimit must run after bearerAuth.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserIDFromContext(r.Context())
		if !s.limiter.allow(userID) {
			w.Header().Set("Retry-After", "1")
			WriteError(w, HTTPError{Title: "Too Many Requests", Message: "sync rate limit exceeded", Status: http.StatusTooManyRequests})
			return
		}
		next.ServeHTTP(w, r)
	})
}
