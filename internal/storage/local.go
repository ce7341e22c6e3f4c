package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage はローカルファイルシステムにファイルを保存する Storage 実装。
type LocalStorage struct {
	baseDir   string // ディスク上のルートディレクトリ (例: "./uploads")
	urlPrefix string // HTTP で配信する際の URL プレフィックス (例: "/uploads")
}

// NewLocalStorage は LocalStorage を生成する。
func NewLocalStorage(baseDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// BaseDir は保存先ディレクトリを返す（静的配信用）
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *LocalStorage) Save(ctx context.Context, key string, data io.Reader, _ string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	dest, err := s.path(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, data)
	if err != nil {
		_ = os.Remove(dest)
		return "", 0, fmt.Errorf("storage: write: %w", err)
	}

	return s.urlPrefix + "/" + filepath.ToSlash(filepath.Clean(filepath.FromSlash(key))), n, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
