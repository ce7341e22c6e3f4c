package repository

import (
	"context"

	"github.com/workbridge/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// ProjectRepository はプロジェクト永続化のインターフェース
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// LockByID はトランザクション内で行ロックを取得して読み込む
	LockByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, limit, offset int) ([]*model.Project, error)
	// ListByMemberID はクライアントまたはタレントとして参加しているプロジェクトを返す
	ListByMemberID(ctx context.Context, userID string) ([]*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) error
	UpdateTalent(ctx context.Context, id, talentID string) error
}

// MilestoneRepository はマイルストーン永続化のインターフェース。
// 取得・更新は常に projectID でスコープされる。
type MilestoneRepository interface {
	GetByID(ctx context.Context, projectID, id string) (*model.Milestone, error)
	// LockByID はトランザクション内で行ロックを取得して読み込む
	LockByID(ctx context.Context, projectID, id string) (*model.Milestone, error)
	ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error)
	Create(ctx context.Context, m *model.Milestone) error
	UpdateStatus(ctx context.Context, projectID, id string, status model.MilestoneStatus) error
}

// DeliveryRepository は納品物永続化のインターフェース。Status 以外の更新手段は持たない
type DeliveryRepository interface {
	GetByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error)
	LockByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error)
	ListByProjectID(ctx context.Context, projectID string) ([]*model.DeliverySubmission, error)
	Create(ctx context.Context, d *model.DeliverySubmission) error
	UpdateStatus(ctx context.Context, projectID, id string, status model.DeliveryStatus) error
}

// MessageRepository は追記専用のタイムライン。Update / Delete は持たない
type MessageRepository interface {
	ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectMessage, error)
	Insert(ctx context.Context, m *model.ProjectMessage) error
}

// FileRepository はアップロードファイルのメタデータ永続化のインターフェース
type FileRepository interface {
	GetByID(ctx context.Context, projectID, id string) (*model.ProjectFile, error)
	ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectFile, error)
	Create(ctx context.Context, f *model.ProjectFile) error
}

// Store は各エンティティのリポジトリとトランザクション境界をまとめる
type Store interface {
	Projects() ProjectRepository
	Milestones() MilestoneRepository
	Deliveries() DeliveryRepository
	Messages() MessageRepository
	Files() FileRepository
	// WithinTx は fn を 1 トランザクションで実行する。fn がエラーを返すと全変更が破棄される。
	// 既にトランザクション内の Store で呼んだ場合は同じトランザクションを使う。
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
