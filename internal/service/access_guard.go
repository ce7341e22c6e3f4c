package service

import (
	"context"

	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// Authorize はプロジェクトを読み込み、userID が role の当事者であることを確認する。
// 読み取りのみで副作用はない。全ての変更操作はこれを通過してから行う。
func Authorize(ctx context.Context, projects repository.ProjectRepository, projectID, userID string, role model.Role) (*model.Project, error) {
	return authorizeWith(ctx, projects.GetByID, projectID, userID, role)
}

// AuthorizeForUpdate は Authorize と同じ確認を、プロジェクト行をロックして行う。
// プロジェクト自体の状態を読んで書き換える操作はこちらを使う
func AuthorizeForUpdate(ctx context.Context, projects repository.ProjectRepository, projectID, userID string, role model.Role) (*model.Project, error) {
	return authorizeWith(ctx, projects.LockByID, projectID, userID, role)
}

func authorizeWith(ctx context.Context, load func(context.Context, string) (*model.Project, error), projectID, userID string, role model.Role) (*model.Project, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	p, err := load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	switch role {
	case model.RoleClient:
		if p.IsClient(userID) {
			return p, nil
		}
	case model.RoleTalent:
		if p.IsTalent(userID) {
			return p, nil
		}
	}
	return nil, ErrForbidden
}

// AuthorizeMember はクライアント・タレントどちらかであることを確認し、その立場を返す
func AuthorizeMember(ctx context.Context, projects repository.ProjectRepository, projectID, userID string) (*model.Project, model.Role, error) {
	if userID == "" {
		return nil, "", ErrUnauthenticated
	}
	p, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	switch {
	case p.IsClient(userID):
		return p, model.RoleClient, nil
	case p.IsTalent(userID):
		return p, model.RoleTalent, nil
	}
	return nil, "", ErrForbidden
}

// AuthorizeViewer は閲覧権限を確認する。管理者はどのプロジェクトも閲覧できる
func AuthorizeViewer(ctx context.Context, projects repository.ProjectRepository, projectID, userID string, isAdmin bool) (*model.Project, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	p, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !p.IsMember(userID) {
		return nil, ErrForbidden
	}
	return p, nil
}
