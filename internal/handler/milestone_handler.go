package handler

import (
	"context"
	"net/http"

	"github.com/workbridge/backend/internal/service"
)

// MilestoneHandler はマイルストーンの作成と状態変更の HTTP ハンドラ
type MilestoneHandler struct {
	milestoneService service.MilestoneService
}

// NewMilestoneHandler は MilestoneHandler を生成する
func NewMilestoneHandler(milestoneService service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// Create は POST /api/client/projects/{id}/milestones を処理する
func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	m, err := h.milestoneService.Create(r.Context(), userID, r.PathValue("id"), bag.Get("title"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ClientSetStatus は PATCH /api/client/projects/{id}/milestones/{mid}/status を処理する
func (h *MilestoneHandler) ClientSetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.milestoneService.ClientSetStatus)
}

// TalentSetStatus は PATCH /api/talent/projects/{id}/milestones/{mid}/status を処理する
func (h *MilestoneHandler) TalentSetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.milestoneService.TalentSetStatus)
}

type setMilestoneStatusFunc func(ctx context.Context, userID string, cmd service.SetMilestoneStatusCommand) (service.Outcome, error)

func (h *MilestoneHandler) setStatus(w http.ResponseWriter, r *http.Request, fn setMilestoneStatusFunc) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	projectID := r.PathValue("id")
	out, err := fn(r.Context(), userID, service.SetMilestoneStatusCommand{
		ProjectID:   projectID,
		MilestoneID: r.PathValue("mid"),
		Status:      bag.Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOutcome(w, projectID, out)
}
