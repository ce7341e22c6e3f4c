package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/workbridge/backend/internal/metrics"
	"github.com/workbridge/backend/internal/model"
)

// WorkspaceNotifier はコミット済みの変更をワークスペースの購読者へ伝える
type WorkspaceNotifier interface {
	WorkspaceChanged(ctx context.Context, ev model.WorkspaceEvent) error
}

// Notifiers は複数の WorkspaceNotifier に順に通知する
type Notifiers []WorkspaceNotifier

// WorkspaceChanged は全ての通知先を呼び、失敗をまとめて返す
func (ns Notifiers) WorkspaceChanged(ctx context.Context, ev model.WorkspaceEvent) error {
	var errs []error
	for _, n := range ns {
		if err := n.WorkspaceChanged(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify is fire-and-forget: failures are logged and never break the operation.
func notify(ctx context.Context, n WorkspaceNotifier, ev model.WorkspaceEvent) {
	if n == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := n.WorkspaceChanged(ctx, ev); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		slog.Warn("workspace notify failed", "type", ev.Type, "project_id", ev.ProjectID, "error", err)
	}
}
