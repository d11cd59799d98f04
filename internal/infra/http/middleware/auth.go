package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const WebhookTokenHeader = "X-Webhook-Token"

// WebhookToken rejects requests that do not carry the shared token, either in
// the X-Webhook-Token header or the "token" query parameter. An empty token
// disables the check.
func WebhookToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(WebhookTokenHeader)
			if got == "" {
				got = r.URL.Query().Get("token")
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "UNAUTHORIZED",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
