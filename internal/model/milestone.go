package model

import "time"

// MilestoneStatus はマイルストーンの状態
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusApproved   MilestoneStatus = "approved"
)

// ParseMilestoneStatus は文字列を MilestoneStatus に変換する。未知の値は ok=false
func ParseMilestoneStatus(s string) (MilestoneStatus, bool) {
	switch st := MilestoneStatus(s); st {
	case MilestoneStatusPending, MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusApproved:
		return st, true
	}
	return "", false
}

// Milestone はプロジェクトに属する納品単位
type Milestone struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Title     string          `json:"title"`
	Status    MilestoneStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
