package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/workbridge/backend/internal/metrics"
	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// SetMilestoneStatusCommand は境界で受け取ったマイルストーン状態変更の入力
type SetMilestoneStatusCommand struct {
	ProjectID   string
	MilestoneID string
	Status      string
}

// MilestoneService はマイルストーン遷移のビジネスロジックのインターフェース
type MilestoneService interface {
	// Create はクライアントがマイルストーンを追加する（status=pending）
	Create(ctx context.Context, userID, projectID, title string) (*model.Milestone, error)
	// ClientSetStatus は approved / in_progress のみ受け付ける
	ClientSetStatus(ctx context.Context, userID string, cmd SetMilestoneStatusCommand) (Outcome, error)
	// TalentSetStatus は in_progress / completed のみ受け付ける
	TalentSetStatus(ctx context.Context, userID string, cmd SetMilestoneStatusCommand) (Outcome, error)
}

type milestoneService struct {
	store    repository.Store
	narrator *Narrator
	notifier WorkspaceNotifier
}

// NewMilestoneService は MilestoneService を生成する。notifier は nil 可
func NewMilestoneService(store repository.Store, narrator *Narrator, notifier WorkspaceNotifier) MilestoneService {
	return &milestoneService{store: store, narrator: narrator, notifier: notifier}
}

func (s *milestoneService) Create(ctx context.Context, userID, projectID, title string) (*model.Milestone, error) {
	title = strings.TrimSpace(title)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	m := &model.Milestone{ProjectID: projectID, Title: title, Status: model.MilestoneStatusPending}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := Authorize(ctx, tx.Projects(), projectID, userID, model.RoleClient); err != nil {
			return err
		}
		if err := tx.Milestones().Create(ctx, m); err != nil {
			return fmt.Errorf("create milestone: %w", err)
		}
		return s.narrator.Emit(ctx, tx.Messages(), projectID, fmt.Sprintf(`Client added milestone "%s".`, title))
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventMilestoneCreated, ProjectID: projectID, EntityID: m.ID,
		Status: string(m.Status), ActorID: userID,
	})
	return m, nil
}

func (s *milestoneService) ClientSetStatus(ctx context.Context, userID string, cmd SetMilestoneStatusCommand) (Outcome, error) {
	return s.setStatus(ctx, userID, clientMilestoneAuthority, cmd)
}

func (s *milestoneService) TalentSetStatus(ctx context.Context, userID string, cmd SetMilestoneStatusCommand) (Outcome, error) {
	return s.setStatus(ctx, userID, talentMilestoneAuthority, cmd)
}

// setStatus は権限を確認し、マイルストーンの status を上書きしてナレーションを追記する。
// 現在の status による前提条件は設けない（最後の書き込みが勝つ）。
func (s *milestoneService) setStatus(ctx context.Context, userID string, auth milestoneAuthority, cmd SetMilestoneStatusCommand) (Outcome, error) {
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if cmd.ProjectID == "" || cmd.MilestoneID == "" {
		return reject(auth.operation, RejectMissingField), nil
	}

	var out Outcome
	status, known := model.ParseMilestoneStatus(cmd.Status)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := Authorize(ctx, tx.Projects(), cmd.ProjectID, userID, auth.role); err != nil {
			return err
		}
		if !known || !auth.permits(status) {
			out = rejected(RejectStatusNotAllowed)
			return nil
		}

		// タイトルは同一トランザクション内で行ロックを取って読む
		m, err := tx.Milestones().LockByID(ctx, cmd.ProjectID, cmd.MilestoneID)
		if err != nil {
			return err
		}
		if err := tx.Milestones().UpdateStatus(ctx, cmd.ProjectID, m.ID, status); err != nil {
			return fmt.Errorf("update milestone status: %w", err)
		}
		if err := s.narrator.Emit(ctx, tx.Messages(), cmd.ProjectID, auth.narrate(status, m.Title)); err != nil {
			return err
		}
		out = applied(m.ID)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if !out.Applied {
		return reject(auth.operation, out.Reason), nil
	}

	metrics.MilestoneTransitionsTotal.WithLabelValues(string(auth.role), string(status)).Inc()
	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventMilestoneStatusChanged, ProjectID: cmd.ProjectID, EntityID: cmd.MilestoneID,
		Status: string(status), ActorID: userID,
	})
	return out, nil
}
