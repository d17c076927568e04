package health

import (
	"encoding/json"
	"net/http"
)

// Backend modes reported by the health endpoint.
const (
	ModeFirebase = "firebase"
	ModeFallback = "fallback"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// Handler returns a plain HTTP handler for the health check endpoint. mode
// tells operators whether the server is serving placeholder data.
func Handler(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Status: "healthy", Mode: mode})
	}
}
