package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

// CreateProjectInput は POST /api/projects の入力
type CreateProjectInput struct {
	Title       string
	Description string
	Budget      int
	Deadline    *time.Time
}

// ProjectService はプロジェクトに関するビジネスロジックのインターフェース
type ProjectService interface {
	// Create は呼び出し元をクライアントとして draft のプロジェクトを作成する
	Create(ctx context.Context, userID string, in CreateProjectInput) (*model.Project, error)
	GetByID(ctx context.Context, userID string, isAdmin bool, id string) (*model.Project, error)
	ListMine(ctx context.Context, userID string) ([]*model.Project, error)
	// ListAll は管理者向けの全件一覧
	ListAll(ctx context.Context, isAdmin bool, limit, offset int) ([]*model.Project, error)
	ChangeStatus(ctx context.Context, userID, projectID, status string) (*model.Project, error)
	AssignTalent(ctx context.Context, userID, projectID, talentID string) (*model.Project, error)
	// Workspace はプロジェクトと関連エンティティをまとめて返す
	Workspace(ctx context.Context, userID string, isAdmin bool, projectID string) (*model.Workspace, error)
}

// ProjectServiceImpl は ProjectService の実装
type ProjectServiceImpl struct {
	store    repository.Store
	narrator *Narrator
	notifier WorkspaceNotifier
}

// NewProjectService は ProjectServiceImpl を生成する。notifier は nil 可
func NewProjectService(store repository.Store, narrator *Narrator, notifier WorkspaceNotifier) ProjectService {
	return &ProjectServiceImpl{store: store, narrator: narrator, notifier: notifier}
}

// Create はプロジェクトを作成する
func (s *ProjectServiceImpl) Create(ctx context.Context, userID string, in CreateProjectInput) (*model.Project, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}

	p := &model.Project{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      model.ProjectStatusDraft,
		ClientID:    userID,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Projects().Create(ctx, p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return s.narrator.Emit(ctx, tx.Messages(), p.ID, fmt.Sprintf(`Project "%s" was created.`, p.Title))
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventProjectCreated, ProjectID: p.ID, Status: string(p.Status), ActorID: userID,
	})
	return p, nil
}

// GetByID は閲覧権限を確認してプロジェクトを返す
func (s *ProjectServiceImpl) GetByID(ctx context.Context, userID string, isAdmin bool, id string) (*model.Project, error) {
	return AuthorizeViewer(ctx, s.store.Projects(), id, userID, isAdmin)
}

// ListMine は参加中のプロジェクト一覧を返す
func (s *ProjectServiceImpl) ListMine(ctx context.Context, userID string) ([]*model.Project, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	projects, err := s.store.Projects().ListByMemberID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	return projects, nil
}

// ListAll は全プロジェクトを返す（管理者のみ）
func (s *ProjectServiceImpl) ListAll(ctx context.Context, isAdmin bool, limit, offset int) ([]*model.Project, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	projects, err := s.store.Projects().List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	return projects, nil
}

// ChangeStatus はライフサイクル遷移を検証して適用する（クライアントのみ）
func (s *ProjectServiceImpl) ChangeStatus(ctx context.Context, userID, projectID, status string) (*model.Project, error) {
	to := model.ProjectStatus(status)
	var p *model.Project
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if p, err = AuthorizeForUpdate(ctx, tx.Projects(), projectID, userID, model.RoleClient); err != nil {
			return err
		}
		if !canMoveProject(p.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, status)
		}
		if err := tx.Projects().UpdateStatus(ctx, projectID, to); err != nil {
			return fmt.Errorf("update project status: %w", err)
		}
		p.Status = to
		return s.narrator.Emit(ctx, tx.Messages(), projectID, projectStatusNarration[to])
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventProjectStatusChanged, ProjectID: projectID, Status: status, ActorID: userID,
	})
	return p, nil
}

// AssignTalent はタレントをアサインする。既存のタレントは置き換えられる
func (s *ProjectServiceImpl) AssignTalent(ctx context.Context, userID, projectID, talentID string) (*model.Project, error) {
	talentID = strings.TrimSpace(talentID)
	var p *model.Project
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if p, err = AuthorizeForUpdate(ctx, tx.Projects(), projectID, userID, model.RoleClient); err != nil {
			return err
		}
		if talentID == "" || talentID == p.ClientID {
			return fmt.Errorf("%w: talent must be another user", ErrInvalidInput)
		}
		if p.Status.IsTerminal() {
			return fmt.Errorf("%w: project is %s", ErrInvalidTransition, p.Status)
		}
		if err := tx.Projects().UpdateTalent(ctx, projectID, talentID); err != nil {
			return fmt.Errorf("assign talent: %w", err)
		}
		p.TalentID = &talentID
		return s.narrator.Emit(ctx, tx.Messages(), projectID, "Talent was assigned to the project.")
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, model.WorkspaceEvent{
		Type: model.EventProjectTalentAssigned, ProjectID: projectID, EntityID: talentID, ActorID: userID,
	})
	return p, nil
}

// Workspace は関連エンティティを並列に読み込む
func (s *ProjectServiceImpl) Workspace(ctx context.Context, userID string, isAdmin bool, projectID string) (*model.Workspace, error) {
	p, err := AuthorizeViewer(ctx, s.store.Projects(), projectID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	ws := &model.Workspace{Project: p}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ws.Milestones, err = s.store.Milestones().ListByProjectID(gCtx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Deliveries, err = s.store.Deliveries().ListByProjectID(gCtx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Messages, err = s.store.Messages().ListByProjectID(gCtx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Files, err = s.store.Files().ListByProjectID(gCtx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	// nil スライスを空配列として返す
	if ws.Milestones == nil {
		ws.Milestones = []*model.Milestone{}
	}
	if ws.Deliveries == nil {
		ws.Deliveries = []*model.DeliverySubmission{}
	}
	if ws.Messages == nil {
		ws.Messages = []*model.ProjectMessage{}
	}
	if ws.Files == nil {
		ws.Files = []*model.ProjectFile{}
	}
	return ws, nil
}
