package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthTimeout = 2 * time.Second
	componentOK   = "ok"
	componentDown = "down"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// Health は GET /api/health を処理する。ストアが落ちていれば 503、
// それ以外の依存の失敗は degraded として 200 で返す
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Service: "workbridge", Components: map[string]string{}}
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		slog.Error("health check failed", "component", "store", "error", err)
		resp.Components["store"] = componentDown
		code = http.StatusServiceUnavailable
	} else {
		resp.Components["store"] = componentOK
	}

	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			slog.Warn("health check failed", "component", d.Name, "error", err)
			resp.Components[d.Name] = componentDown
			if code == http.StatusOK {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Components[d.Name] = componentOK
	}

	writeJSON(w, code, resp)
}
