package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey はストレージ外を指すキーが渡された場合のエラー
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage はアップロードファイルの保存・削除を抽象化するインターフェース。
// ローカルファイルシステム実装の他、S3 / Cloudflare R2 等に差し替え可能。
type Storage interface {
	// Save はファイルを保存し、公開 URL と書き込んだバイト数を返す。
	// key はストレージ内の一意パス (例: "projects/<id>/<uuid>.pdf")。
	Save(ctx context.Context, key string, data io.Reader, contentType string) (url string, written int64, err error)

	// Delete は key に対応するファイルを削除する。存在しない場合は何もしない。
	Delete(ctx context.Context, key string) error
}
