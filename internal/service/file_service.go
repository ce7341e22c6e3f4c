package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
	"github.com/workbridge/backend/internal/storage"
)

// UploadInput はアップロードされたファイル
type UploadInput struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// FileService はワークスペースのファイルアップロードのインターフェース
type FileService interface {
	Upload(ctx context.Context, userID, projectID string, in UploadInput) (*model.ProjectFile, error)
	List(ctx context.Context, userID string, isAdmin bool, projectID string) ([]*model.ProjectFile, error)
}

type fileService struct {
	store    repository.Store
	storage  storage.Storage
	maxBytes int64
	notifier WorkspaceNotifier
}

// NewFileService は FileService を生成する。maxBytes <= 0 で上限なし
func NewFileService(store repository.Store, st storage.Storage, maxBytes int64, notifier WorkspaceNotifier) FileService {
	return &fileService{store: store, storage: st, maxBytes: maxBytes, notifier: notifier}
}

// Upload はクライアント・タレントどちらからも受け付ける
func (s *fileService) Upload(ctx context.Context, userID, projectID string, in UploadInput) (*model.ProjectFile, error) {
	if _, _, err := AuthorizeMember(ctx, s.store.Projects(), projectID, userID); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(in.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := in.Body
	if s.maxBytes > 0 {
		// 1 バイト余分に読めたら上限超過
		body = io.LimitReader(in.Body, s.maxBytes+1)
	}

	key := "projects/" + projectID + "/" + uuid.NewString() + safeExt(name)
	url, written, err := s.storage.Save(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		s.discard(ctx, key)
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}

	f := &model.ProjectFile{
		ProjectID:   projectID,
		UploaderID:  userID,
		Name:        name,
		ContentType: contentType,
		Size:        written,
		StorageKey:  key,
		URL:         url,
	}
	if err := s.store.Files().Create(ctx, f); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("record file: %w", err)
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventFileUploaded, ProjectID: projectID, EntityID: f.ID, ActorID: userID,
	})
	return f, nil
}

func (s *fileService) List(ctx context.Context, userID string, isAdmin bool, projectID string) ([]*model.ProjectFile, error) {
	if _, err := AuthorizeViewer(ctx, s.store.Projects(), projectID, userID, isAdmin); err != nil {
		return nil, err
	}
	files, err := s.store.Files().ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*model.ProjectFile{}
	}
	return files, nil
}

func (s *fileService) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("file cleanup failed", "key", key, "error", err)
	}
}

// safeExt は英数字のみの短い拡張子を小文字で返す
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
