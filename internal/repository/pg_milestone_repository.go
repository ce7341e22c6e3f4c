package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/workbridge/backend/internal/model"
)

// PgMilestoneRepository は MilestoneRepository の PostgreSQL 実装
type PgMilestoneRepository struct {
	q querier
}

func (r *PgMilestoneRepository) get(ctx context.Context, projectID, id, suffix string) (*model.Milestone, error) {
	var m model.Milestone
	err := r.q.QueryRow(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at
		 FROM milestones WHERE id = $1 AND project_id = $2`+suffix,
		id, projectID,
	).Scan(&m.ID, &m.ProjectID, &m.Title, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// GetByID は ID でマイルストーンを取得する
func (r *PgMilestoneRepository) GetByID(ctx context.Context, projectID, id string) (*model.Milestone, error) {
	return r.get(ctx, projectID, id, "")
}

// LockByID は SELECT ... FOR UPDATE で取得する。ロックはトランザクション終了まで保持される
func (r *PgMilestoneRepository) LockByID(ctx context.Context, projectID, id string) (*model.Milestone, error) {
	return r.get(ctx, projectID, id, " FOR UPDATE")
}

// ListByProjectID はプロジェクトのマイルストーンを作成順に返す
func (r *PgMilestoneRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at
		 FROM milestones WHERE project_id = $1 ORDER BY created_at ASC, id ASC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Milestone, error) {
		var m model.Milestone
		err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Status, &m.CreatedAt, &m.UpdatedAt)
		return &m, err
	})
}

// Create はマイルストーンを作成する
func (r *PgMilestoneRepository) Create(ctx context.Context, m *model.Milestone) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO milestones (project_id, title, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		m.ProjectID, m.Title, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// UpdateStatus は status を無条件に上書きする
func (r *PgMilestoneRepository) UpdateStatus(ctx context.Context, projectID, id string, status model.MilestoneStatus) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE milestones SET status = $1, updated_at = NOW() WHERE id = $2 AND project_id = $3`,
		status, id, projectID,
	))
}
