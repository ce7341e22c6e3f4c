package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/workbridge/backend/internal/model"
)

const projectColumns = `id, title, description, status, client_id, talent_id, budget, deadline, created_at, updated_at`

// PgProjectRepository は ProjectRepository の PostgreSQL 実装
type PgProjectRepository struct {
	q querier
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.ClientID, &p.TalentID,
		&p.Budget, &p.Deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows, err error) ([]*model.Project, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetByID は ID でプロジェクトを取得する
func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// LockByID は SELECT ... FOR UPDATE でプロジェクトを取得する
func (r *PgProjectRepository) LockByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// List はプロジェクト一覧を新しい順に取得する
func (r *PgProjectRepository) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	return collectProjects(r.q.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	))
}

// ListByMemberID はクライアントまたはタレントとして参加しているプロジェクトを取得する
func (r *PgProjectRepository) ListByMemberID(ctx context.Context, userID string) ([]*model.Project, error) {
	return collectProjects(r.q.Query(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE client_id = $1 OR talent_id = $1
		 ORDER BY created_at DESC`,
		userID,
	))
}

// Create はプロジェクトを作成する
func (r *PgProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO projects (title, description, status, client_id, talent_id, budget, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		project.Title, project.Description, project.Status, project.ClientID, project.TalentID,
		project.Budget, project.Deadline,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

// UpdateStatus はプロジェクトの status を更新する
func (r *PgProjectRepository) UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	))
}

// UpdateTalent はアサインされたタレントを差し替える
func (r *PgProjectRepository) UpdateTalent(ctx context.Context, id, talentID string) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE projects SET talent_id = $1, updated_at = NOW() WHERE id = $2`,
		talentID, id,
	))
}
