package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// MessageService はワークスペースのチャットのインターフェース
type MessageService interface {
	SendClient(ctx context.Context, userID, projectID, body string) (Outcome, error)
	SendTalent(ctx context.Context, userID, projectID, body string) (Outcome, error)
	// List はタイムラインを古い順に返す（システムメッセージを含む）
	List(ctx context.Context, userID string, isAdmin bool, projectID string) ([]*model.ProjectMessage, error)
}

type messageService struct {
	store    repository.Store
	notifier WorkspaceNotifier
}

// NewMessageService は MessageService を生成する。notifier は nil 可
func NewMessageService(store repository.Store, notifier WorkspaceNotifier) MessageService {
	return &messageService{store: store, notifier: notifier}
}

func (s *messageService) SendClient(ctx context.Context, userID, projectID, body string) (Outcome, error) {
	return s.send(ctx, userID, projectID, body, model.RoleClient)
}

func (s *messageService) SendTalent(ctx context.Context, userID, projectID, body string) (Outcome, error) {
	return s.send(ctx, userID, projectID, body, model.RoleTalent)
}

// send は送信者自身の ID と立場でメッセージを追記するだけで、状態遷移は伴わない
func (s *messageService) send(ctx context.Context, userID, projectID, body string, role model.Role) (Outcome, error) {
	op := "send_" + string(role) + "_message"
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if projectID == "" {
		return reject(op, RejectMissingField), nil
	}
	if _, err := Authorize(ctx, s.store.Projects(), projectID, userID, role); err != nil {
		return Outcome{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return reject(op, RejectEmptyBody), nil
	}

	sender := userID
	msg := &model.ProjectMessage{ProjectID: projectID, SenderID: &sender, Role: role, Body: body}
	if err := s.store.Messages().Insert(ctx, msg); err != nil {
		return Outcome{}, fmt.Errorf("insert message: %w", err)
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventMessagePosted, ProjectID: projectID, EntityID: msg.ID, ActorID: userID,
	})
	return applied(msg.ID), nil
}

func (s *messageService) List(ctx context.Context, userID string, isAdmin bool, projectID string) ([]*model.ProjectMessage, error) {
	if _, err := AuthorizeViewer(ctx, s.store.Projects(), projectID, userID, isAdmin); err != nil {
		return nil, err
	}
	messages, err := s.store.Messages().ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*model.ProjectMessage{}
	}
	return messages, nil
}
