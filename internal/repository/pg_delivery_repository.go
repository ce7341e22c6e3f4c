package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/workbridge/backend/internal/model"
)

const deliveryColumns = `id, project_id, milestone_id, submitter_id, summary, link, file_id, status, created_at, updated_at`

// PgDeliveryRepository は DeliveryRepository の PostgreSQL 実装
type PgDeliveryRepository struct {
	q querier
}

func scanDelivery(row pgx.Row) (*model.DeliverySubmission, error) {
	var d model.DeliverySubmission
	if err := row.Scan(&d.ID, &d.ProjectID, &d.MilestoneID, &d.SubmitterID, &d.Summary,
		&d.Link, &d.FileID, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgDeliveryRepository) get(ctx context.Context, projectID, id, suffix string) (*model.DeliverySubmission, error) {
	d, err := scanDelivery(r.q.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM delivery_submissions WHERE id = $1 AND project_id = $2`+suffix,
		id, projectID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// GetByID は ID で納品物を取得する
func (r *PgDeliveryRepository) GetByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error) {
	return r.get(ctx, projectID, id, "")
}

// LockByID は SELECT ... FOR UPDATE で取得する
func (r *PgDeliveryRepository) LockByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error) {
	return r.get(ctx, projectID, id, " FOR UPDATE")
}

// ListByProjectID は納品物を新しい順に返す
func (r *PgDeliveryRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.DeliverySubmission, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+deliveryColumns+` FROM delivery_submissions
		 WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*model.DeliverySubmission
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// Create は納品物を作成する
func (r *PgDeliveryRepository) Create(ctx context.Context, d *model.DeliverySubmission) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO delivery_submissions (project_id, milestone_id, submitter_id, summary, link, file_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		d.ProjectID, d.MilestoneID, d.SubmitterID, d.Summary, d.Link, d.FileID, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// UpdateStatus は status を無条件に上書きする
func (r *PgDeliveryRepository) UpdateStatus(ctx context.Context, projectID, id string, status model.DeliveryStatus) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE delivery_submissions SET status = $1, updated_at = NOW() WHERE id = $2 AND project_id = $3`,
		status, id, projectID,
	))
}
