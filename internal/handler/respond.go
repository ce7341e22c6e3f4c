package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/workbridge/backend/internal/service"
	"github.com/workbridge/backend/pkg/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError はサービス層のエラーを HTTP ステータスに変換する
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// caller は認証ミドルウェアが context にセットしたユーザーを返す
func caller(r *http.Request) (userID string, isAdmin bool) {
	userID, _ = auth.UserIDFromContext(r.Context())
	return userID, auth.IsAdminFromContext(r.Context())
}

// outcomeResponse はワークフロー操作の応答。invalidate は再読込すべきビュー
type outcomeResponse struct {
	Applied    bool                 `json:"applied"`
	Reason     service.RejectReason `json:"reason,omitempty"`
	EntityID   string               `json:"entity_id,omitempty"`
	Invalidate string               `json:"invalidate"`
}

func workspacePath(projectID string) string {
	return "/projects/" + projectID + "/workspace"
}

func writeOutcome(w http.ResponseWriter, projectID string, out service.Outcome) {
	writeJSON(w, http.StatusOK, outcomeResponse{
		Applied:    out.Applied,
		Reason:     out.Reason,
		EntityID:   out.EntityID,
		Invalidate: workspacePath(projectID),
	})
}
