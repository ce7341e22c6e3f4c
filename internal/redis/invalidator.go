package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/workbridge/backend/internal/model"
)

// VersionKey はワークスペースのバージョンカウンタのキー
func VersionKey(projectID string) string {
	return "workspace:" + projectID + ":version"
}

// Channel はワークスペースの変更通知チャネル名
func Channel(projectID string) string {
	return "workspace:" + projectID
}

// Invalidator はワークスペースビューの無効化を Redis で伝える。
// 変更ごとにバージョンを INCR し、同じイベントを PUBLISH する。
type Invalidator struct {
	rdb *goredis.Client
}

// NewInvalidator は Invalidator を生成する
func NewInvalidator(rdb *goredis.Client) *Invalidator {
	return &Invalidator{rdb: rdb}
}

// WorkspaceChanged は service.WorkspaceNotifier を満たす
func (i *Invalidator) WorkspaceChanged(ctx context.Context, ev model.WorkspaceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := i.rdb.TxPipeline()
	pipe.Incr(ctx, VersionKey(ev.ProjectID))
	pipe.Publish(ctx, Channel(ev.ProjectID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}

// Version は現在のワークスペースバージョンを返す。未変更なら 0
func (i *Invalidator) Version(ctx context.Context, projectID string) (int64, error) {
	v, err := i.rdb.Get(ctx, VersionKey(projectID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

// Ping はヘルスチェック用
func (i *Invalidator) Ping(ctx context.Context) error {
	return i.rdb.Ping(ctx).Err()
}
