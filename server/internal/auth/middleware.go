package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIKey returns HTTP middleware that enforces API key authentication on
// every request passed to next.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed (pass-through).
//   - Otherwise the value of header is compared to key in constant time.
//   - A missing, empty, or incorrect key returns 401 with a JSON error body.
func APIKey(mode, header, key string, next http.Handler) http.Handler {
	if mode != "apikey" || key == "" {
		return next
	}
	want := []byte(key)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(header)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			slog.Warn("auth: rejected request",
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"key_present", got != "",
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"}) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}
