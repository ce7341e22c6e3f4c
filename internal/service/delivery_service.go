package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/workbridge/backend/internal/metrics"
	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// ReviewDeliveryCommand はクライアントのレビュー入力
type ReviewDeliveryCommand struct {
	ProjectID  string
	DeliveryID string
	Decision   string
}

// SubmitDeliveryCommand はタレントの納品入力。空文字は未指定を表す
type SubmitDeliveryCommand struct {
	ProjectID   string
	Summary     string
	Link        string
	MilestoneID string
	FileID      string
}

// DeliveryService は納品提出とレビューのインターフェース
type DeliveryService interface {
	// Review は納品物の status を更新し、紐づくマイルストーンへ連鎖させる
	Review(ctx context.Context, userID string, cmd ReviewDeliveryCommand) (Outcome, error)
	// Submit は納品物を作成し、指定があればマイルストーンを completed にする
	Submit(ctx context.Context, userID string, cmd SubmitDeliveryCommand) (Outcome, error)
}

type deliveryService struct {
	store    repository.Store
	narrator *Narrator
	notifier WorkspaceNotifier
}

// NewDeliveryService は DeliveryService を生成する。notifier は nil 可
func NewDeliveryService(store repository.Store, narrator *Narrator, notifier WorkspaceNotifier) DeliveryService {
	return &deliveryService{store: store, narrator: narrator, notifier: notifier}
}

// Review は判断を無条件に適用する。同じ判断を繰り返すと連鎖とナレーションも毎回発生する。
func (s *deliveryService) Review(ctx context.Context, userID string, cmd ReviewDeliveryCommand) (Outcome, error) {
	const op = "review_delivery"
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if cmd.ProjectID == "" || cmd.DeliveryID == "" {
		return reject(op, RejectMissingField), nil
	}

	var out Outcome
	effect, known := reviewEffects[model.ReviewDecision(cmd.Decision)]
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := Authorize(ctx, tx.Projects(), cmd.ProjectID, userID, model.RoleClient); err != nil {
			return err
		}
		if !known {
			out = rejected(RejectUnknownDecision)
			return nil
		}

		d, err := tx.Deliveries().LockByID(ctx, cmd.ProjectID, cmd.DeliveryID)
		if err != nil {
			return err
		}
		if err := tx.Deliveries().UpdateStatus(ctx, cmd.ProjectID, d.ID, effect.delivery); err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}

		var title string
		if d.MilestoneID != nil {
			m, err := tx.Milestones().LockByID(ctx, cmd.ProjectID, *d.MilestoneID)
			if err != nil {
				return err
			}
			if err := tx.Milestones().UpdateStatus(ctx, cmd.ProjectID, m.ID, effect.milestone); err != nil {
				return fmt.Errorf("cascade milestone status: %w", err)
			}
			title = m.Title
		}

		if err := s.narrator.Emit(ctx, tx.Messages(), cmd.ProjectID, effect.narrate(title)); err != nil {
			return err
		}
		out = applied(d.ID)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if !out.Applied {
		return reject(op, out.Reason), nil
	}

	metrics.DeliveryEventsTotal.WithLabelValues(string(effect.delivery)).Inc()
	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventDeliveryReviewed, ProjectID: cmd.ProjectID, EntityID: cmd.DeliveryID,
		Status: string(effect.delivery), ActorID: userID,
	})
	return out, nil
}

// Submit はマイルストーンの現在の status に関係なく completed にする。
func (s *deliveryService) Submit(ctx context.Context, userID string, cmd SubmitDeliveryCommand) (Outcome, error) {
	const op = "submit_delivery"
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	summary := strings.TrimSpace(cmd.Summary)
	if cmd.ProjectID == "" || summary == "" {
		return reject(op, RejectMissingField), nil
	}

	d := &model.DeliverySubmission{
		ProjectID:   cmd.ProjectID,
		SubmitterID: userID,
		Summary:     summary,
		Link:        optional(cmd.Link),
		MilestoneID: optional(cmd.MilestoneID),
		FileID:      optional(cmd.FileID),
		Status:      model.DeliveryStatusPending,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := Authorize(ctx, tx.Projects(), cmd.ProjectID, userID, model.RoleTalent); err != nil {
			return err
		}

		var m *model.Milestone
		if d.MilestoneID != nil {
			var err error
			if m, err = tx.Milestones().LockByID(ctx, cmd.ProjectID, *d.MilestoneID); err != nil {
				return err
			}
		}
		if d.FileID != nil {
			if _, err := tx.Files().GetByID(ctx, cmd.ProjectID, *d.FileID); err != nil {
				return err
			}
		}

		if err := tx.Deliveries().Create(ctx, d); err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}

		var title string
		if m != nil {
			if err := tx.Milestones().UpdateStatus(ctx, cmd.ProjectID, m.ID, model.MilestoneStatusCompleted); err != nil {
				return fmt.Errorf("complete milestone: %w", err)
			}
			title = m.Title
		}
		return s.narrator.Emit(ctx, tx.Messages(), cmd.ProjectID, narrateSubmission(title))
	})
	if err != nil {
		return Outcome{}, err
	}

	metrics.DeliveryEventsTotal.WithLabelValues(string(model.DeliveryStatusPending)).Inc()
	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventDeliverySubmitted, ProjectID: cmd.ProjectID, EntityID: d.ID,
		Status: string(d.Status), ActorID: userID,
	})
	return applied(d.ID), nil
}

func reject(operation string, reason RejectReason) Outcome {
	metrics.RejectedCommandsTotal.WithLabelValues(operation, string(reason)).Inc()
	return rejected(reason)
}

// optional は前後の空白を除き、空なら nil を返す
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
