package service

import (
	"context"
	"fmt"
	"time"

	"github.com/workbridge/backend/internal/metrics"
	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// Narrator はワークフロー遷移ごとにシステムメッセージをタイムラインへ追記する。
// 既存メッセージの更新・削除は行わない。
type Narrator struct {
	now func() time.Time
}

// NewNarrator は Narrator を生成する。now が nil の場合は time.Now を使う
func NewNarrator(now func() time.Time) *Narrator {
	if now == nil {
		now = time.Now
	}
	return &Narrator{now: now}
}

// Emit は senderID=nil, role=system のメッセージを追記する。書き込みエラーはそのまま返す
func (n *Narrator) Emit(ctx context.Context, messages repository.MessageRepository, projectID, body string) error {
	msg := &model.ProjectMessage{
		ProjectID: projectID,
		Role:      model.RoleSystem,
		Body:      body,
		CreatedAt: n.now().UTC(),
	}
	if err := messages.Insert(ctx, msg); err != nil {
		return fmt.Errorf("emit system message: %w", err)
	}
	metrics.SystemMessagesTotal.Inc()
	return nil
}
