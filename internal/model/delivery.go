package model

import "time"

// DeliveryStatus は納品物のレビュー状態
type DeliveryStatus string

const (
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusApproved DeliveryStatus = "approved"
	DeliveryStatusRevision DeliveryStatus = "revision"
)

// ReviewDecision はクライアントのレビュー判断
type ReviewDecision string

const (
	DecisionApprove  ReviewDecision = "approve"
	DecisionRevision ReviewDecision = "revision"
)

// DeliverySubmission はタレントが提出した成果物。作成後は Status 以外変更されない
type DeliverySubmission struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	MilestoneID *string        `json:"milestone_id,omitempty"`
	SubmitterID string         `json:"submitter_id"`
	Summary     string         `json:"summary"`
	Link        *string        `json:"link,omitempty"`
	FileID      *string        `json:"file_id,omitempty"`
	Status      DeliveryStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
