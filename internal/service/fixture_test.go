package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const (
	clientID   = "client-1"
	talentID   = "talent-1"
	outsideID  = "outsider-1"
	projectID  = "proj-1"
	fixedClock = "2026-03-01T10:00:00Z"
)

type mockNotifier struct {
	mu                   sync.Mutex
	events               []model.WorkspaceEvent
	workspaceChangedFunc func(ctx context.Context, ev model.WorkspaceEvent) error
}

func (m *mockNotifier) WorkspaceChanged(ctx context.Context, ev model.WorkspaceEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.workspaceChangedFunc != nil {
		return m.workspaceChangedFunc(ctx, ev)
	}
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type fixture struct {
	store    *repository.MemoryStore
	narrator *Narrator
	notifier *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now, err := time.Parse(time.RFC3339, fixedClock)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		store:    repository.NewMemoryStore(),
		narrator: NewNarrator(func() time.Time { return now }),
		notifier: &mockNotifier{},
	}
}

// seedProject は client-1 / talent-1 がアサインされた active なプロジェクトを作る
func (f *fixture) seedProject(t *testing.T) *model.Project {
	t.Helper()
	talent := talentID
	p := &model.Project{
		ID:       projectID,
		Title:    "Landing page",
		Status:   model.ProjectStatusActive,
		ClientID: clientID,
		TalentID: &talent,
	}
	if err := f.store.Projects().Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func (f *fixture) seedMilestone(t *testing.T, title string, status model.MilestoneStatus) *model.Milestone {
	t.Helper()
	m := &model.Milestone{ProjectID: projectID, Title: title, Status: status}
	if err := f.store.Milestones().Create(context.Background(), m); err != nil {
		t.Fatalf("seed milestone: %v", err)
	}
	return m
}

func (f *fixture) seedDelivery(t *testing.T, milestoneID *string) *model.DeliverySubmission {
	t.Helper()
	d := &model.DeliverySubmission{
		ProjectID:   projectID,
		MilestoneID: milestoneID,
		SubmitterID: talentID,
		Summary:     "First draft",
		Status:      model.DeliveryStatusPending,
	}
	if err := f.store.Deliveries().Create(context.Background(), d); err != nil {
		t.Fatalf("seed delivery: %v", err)
	}
	return d
}

func (f *fixture) milestone(t *testing.T, id string) *model.Milestone {
	t.Helper()
	m, err := f.store.Milestones().GetByID(context.Background(), projectID, id)
	if err != nil {
		t.Fatalf("get milestone: %v", err)
	}
	return m
}

func (f *fixture) delivery(t *testing.T, id string) *model.DeliverySubmission {
	t.Helper()
	d, err := f.store.Deliveries().GetByID(context.Background(), projectID, id)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	return d
}

func (f *fixture) messages(t *testing.T) []*model.ProjectMessage {
	t.Helper()
	msgs, err := f.store.Messages().ListByProjectID(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	return msgs
}

func (f *fixture) systemMessages(t *testing.T) []*model.ProjectMessage {
	t.Helper()
	var out []*model.ProjectMessage
	for _, m := range f.messages(t) {
		if m.IsSystem() {
			out = append(out, m)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// failingMessagesStore はメッセージ書き込みを失敗させる Store
// ---------------------------------------------------------------------------

var errInsertFailed = errors.New("insert failed")

type failingMessagesStore struct {
	repository.Store
}

func (s failingMessagesStore) Messages() repository.MessageRepository {
	return failingMessages{s.Store.Messages()}
}

func (s failingMessagesStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(failingMessagesStore{tx})
	})
}

type failingMessages struct {
	repository.MessageRepository
}

func (failingMessages) Insert(ctx context.Context, m *model.ProjectMessage) error {
	return errInsertFailed
}

// ---------------------------------------------------------------------------
// lockRecordingStore はトランザクション内のプロジェクト行ロックを記録する Store
// ---------------------------------------------------------------------------

type lockRecordingStore struct {
	repository.Store
	locked *[]string
}

func (s lockRecordingStore) Projects() repository.ProjectRepository {
	return lockRecordingProjects{ProjectRepository: s.Store.Projects(), locked: s.locked}
}

func (s lockRecordingStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(lockRecordingStore{Store: tx, locked: s.locked})
	})
}

type lockRecordingProjects struct {
	repository.ProjectRepository
	locked *[]string
}

func (p lockRecordingProjects) LockByID(ctx context.Context, id string) (*model.Project, error) {
	*p.locked = append(*p.locked, id)
	return p.ProjectRepository.LockByID(ctx, id)
}
