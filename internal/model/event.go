package model

import "time"

// WorkspaceEvent types
const (
	EventProjectCreated         = "project.created"
	EventProjectStatusChanged   = "project.status_changed"
	EventProjectTalentAssigned  = "project.talent_assigned"
	EventMilestoneCreated       = "milestone.created"
	EventMilestoneStatusChanged = "milestone.status_changed"
	EventDeliverySubmitted      = "delivery.submitted"
	EventDeliveryReviewed       = "delivery.reviewed"
	EventMessagePosted          = "message.posted"
	EventFileUploaded           = "file.uploaded"
)

// WorkspaceEvent はコミット済みの変更をワークスペース購読者へ通知するためのイベント
type WorkspaceEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	At        time.Time `json:"at"`
}
