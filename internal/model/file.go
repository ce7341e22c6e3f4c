package model

import "time"

// ProjectFile はアップロード済みファイルのメタデータ
type ProjectFile struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	UploaderID  string    `json:"uploader_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
