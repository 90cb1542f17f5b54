package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fleetpay/topup-gateway/internal/auth"
)

// BasicAuth guards the processor endpoint with HTTP Basic credentials.
func BasicAuth(creds auth.Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login, password, ok := r.BasicAuth()
			if !ok {
				writeAuthErr(w, "Auth required")
				return
			}
			if !creds.Match(login, password) {
				slog.Warn("rejected credentials", "login", login, "remote", r.RemoteAddr)
				writeAuthErr(w, "Invalid credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthErr(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
