package model

import "time"

// ProjectMessage はプロジェクトのタイムラインに追記されるメッセージ。
// 書き込み後は更新・削除されない（ワークフロー遷移の監査ログを兼ねる）。
type ProjectMessage struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	SenderID  *string   `json:"sender_id"` // システムメッセージは nil
	Role      Role      `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem はシステム生成メッセージなら true
func (m *ProjectMessage) IsSystem() bool {
	return m.Role == RoleSystem
}
