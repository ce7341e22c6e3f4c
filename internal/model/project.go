package model

import "time"

// ProjectStatus はプロジェクトのライフサイクル状態
type ProjectStatus string

const (
	ProjectStatusDraft       ProjectStatus = "draft"
	ProjectStatusActive      ProjectStatus = "active"
	ProjectStatusMaintenance ProjectStatus = "maintenance"
	ProjectStatusCompleted   ProjectStatus = "completed"
	ProjectStatusCancelled   ProjectStatus = "cancelled"
)

// IsTerminal は completed / cancelled のとき true を返す
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

// Project はクライアントが発注する作業単位
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	ClientID    string        `json:"client_id"`
	TalentID    *string       `json:"talent_id,omitempty"` // 未アサインの場合は nil
	Budget      int           `json:"budget"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsClient は userID がこのプロジェクトのクライアントか判定する
func (p *Project) IsClient(userID string) bool {
	return userID != "" && p.ClientID == userID
}

// IsTalent は userID がアサイン済みタレントか判定する
func (p *Project) IsTalent(userID string) bool {
	return userID != "" && p.TalentID != nil && *p.TalentID == userID
}

// IsMember はクライアントまたはタレントなら true
func (p *Project) IsMember(userID string) bool {
	return p.IsClient(userID) || p.IsTalent(userID)
}

// Workspace はクライアント・タレントが共有するプロジェクトのビュー
type Workspace struct {
	Project    *Project              `json:"project"`
	Milestones []*Milestone          `json:"milestones"`
	Deliveries []*DeliverySubmission `json:"deliveries"`
	Messages   []*ProjectMessage     `json:"messages"`
	Files      []*ProjectFile        `json:"files"`
}
