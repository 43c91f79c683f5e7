package http

import (
	"context"
	"encoding/json"
	"net/http"
)

// LiveCounter reports live session markers held outside the process (Redis).
type LiveCounter interface {
	LiveCount(ctx context.Context) (int, error)
}

type healthResponse struct {
	Status       string `json:"status"`
	LiveSessions *int   `json:"liveSessions,omitempty"`
}

// NewRouter mounts the websocket endpoint and the health check. live may be nil.
func NewRouter(ws *WSHandler, live LiveCounter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler(live))
	mux.HandleFunc("/ws", ws.ServeWS)
	return mux
}

func healthHandler(live LiveCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if live != nil {
			n, err := live.LiveCount(r.Context())
			if err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				resp.LiveSessions = &n
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
