package repository

import (
	"context"

	"github.com/workbridge/backend/internal/model"
)

// PgFileRepository は FileRepository の PostgreSQL 実装
type PgFileRepository struct {
	q querier
}

// GetByID はプロジェクト内のファイルを取得する
func (r *PgFileRepository) GetByID(ctx context.Context, projectID, id string) (*model.ProjectFile, error) {
	var f model.ProjectFile
	err := r.q.QueryRow(ctx,
		`SELECT id, project_id, uploader_id, name, content_type, size, storage_key, url, created_at
		 FROM project_files WHERE id = $1 AND project_id = $2`,
		id, projectID,
	).Scan(&f.ID, &f.ProjectID, &f.UploaderID, &f.Name, &f.ContentType, &f.Size, &f.StorageKey, &f.URL, &f.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// ListByProjectID はファイル一覧を新しい順に返す
func (r *PgFileRepository) ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectFile, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, project_id, uploader_id, name, content_type, size, storage_key, url, created_at
		 FROM project_files WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*model.ProjectFile
	for rows.Next() {
		var f model.ProjectFile
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.UploaderID, &f.Name, &f.ContentType, &f.Size, &f.StorageKey, &f.URL, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// Create はファイルメタデータを記録する
func (r *PgFileRepository) Create(ctx context.Context, f *model.ProjectFile) error {
	return r.q.QueryRow(ctx,
		`INSERT INTO project_files (project_id, uploader_id, name, content_type, size, storage_key, url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		f.ProjectID, f.UploaderID, f.Name, f.ContentType, f.Size, f.StorageKey, f.URL,
	).Scan(&f.ID, &f.CreatedAt)
}
