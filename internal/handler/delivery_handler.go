package handler

import (
	"net/http"

	"github.com/workbridge/backend/internal/service"
)

// DeliveryHandler は納品提出とレビューの HTTP ハンドラ
type DeliveryHandler struct {
	deliveryService service.DeliveryService
}

// NewDeliveryHandler は DeliveryHandler を生成する
func NewDeliveryHandler(deliveryService service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// Review は POST /api/client/projects/{id}/deliveries/{did}/review を処理する
func (h *DeliveryHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	projectID := r.PathValue("id")
	out, err := h.deliveryService.Review(r.Context(), userID, service.ReviewDeliveryCommand{
		ProjectID:  projectID,
		DeliveryID: r.PathValue("did"),
		Decision:   bag.Get("decision"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOutcome(w, projectID, out)
}

// Submit は POST /api/talent/projects/{id}/deliveries を処理する
func (h *DeliveryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	projectID := r.PathValue("id")
	out, err := h.deliveryService.Submit(r.Context(), userID, service.SubmitDeliveryCommand{
		ProjectID:   projectID,
		Summary:     bag.Get("summary"),
		Link:        bag.Get("link"),
		MilestoneID: bag.Get("milestone_id", "milestoneId"),
		FileID:      bag.Get("file_id", "fileId"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOutcome(w, projectID, out)
}
