package repository

import (
	"context"

	"github.com/workbridge/backend/internal/model"
)

// PgMessageRepository は MessageRepository の PostgreSQL 実装
type PgMessageRepository struct {
	q querier
}

// ListByProjectID はタイムラインを古い順に返す
func (r *PgMessageRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectMessage, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, project_id, sender_id, role, body, created_at
		 FROM project_messages WHERE project_id = $1
		 ORDER BY created_at ASC, seq ASC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.ProjectMessage
	for rows.Next() {
		var m model.ProjectMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// Insert はメッセージを追記する。CreatedAt がゼロ値なら DB 側の NOW() を使う
func (r *PgMessageRepository) Insert(ctx context.Context, m *model.ProjectMessage) error {
	var createdAt any
	if !m.CreatedAt.IsZero() {
		createdAt = m.CreatedAt
	}
	return r.q.QueryRow(ctx,
		`INSERT INTO project_messages (project_id, sender_id, role, body, created_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))
		 RETURNING id, created_at`,
		m.ProjectID, m.SenderID, m.Role, m.Body, createdAt,
	).Scan(&m.ID, &m.CreatedAt)
}
