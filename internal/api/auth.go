package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"appointease/internal/models"
)

var errForbidden = errors.New("forbidden")

// UserHeader carries the caller's user id.
const UserHeader = "X-User-ID"

type userHandler func(w http.ResponseWriter, r *http.Request, user models.User)

func (s *HTTPServer) withAPIKey(next http.Handler) http.Handler {
	if s.apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("x-api-key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated resolves the caller from X-User-ID.
func (s *HTTPServer) authenticated(h userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}
		user, err := s.identity.Lookup(r.Context(), userID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.logger.Error().Err(err).Str("user_id", userID).Msg("identity lookup failed")
			writeError(w, http.StatusServiceUnavailable, "identity service unavailable")
			return
		}
		h(w, r, user)
	})
}

// mutating is authenticated plus per-user rate limiting.
func (s *HTTPServer) mutating(h userHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user models.User) {
		if !s.limiter.Allow(user.ID) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		h(w, r, user)
	})
}

func (s *HTTPServer) admin(h userHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user models.User) {
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		if r.Method != http.MethodGet && !s.limiter.Allow(user.ID) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		h(w, r, user)
	})
}
