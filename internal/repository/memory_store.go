package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workbridge/backend/internal/model"
)

// MemoryStore はプロセス内メモリ上の Store 実装。
// 開発用の STORE=memory とユニットテストで使う。
// WithinTx は状態のスナップショットに対して fn を実行し、成功時のみ差し替える。
type MemoryStore struct {
	mu   sync.Mutex
	st   *memState
	inTx bool
	now  func() time.Time
}

type memState struct {
	projects   map[string]model.Project
	milestones map[string]model.Milestone
	deliveries map[string]model.DeliverySubmission
	files      map[string]model.ProjectFile
	messages   []model.ProjectMessage
}

func newMemState() *memState {
	return &memState{
		projects:   map[string]model.Project{},
		milestones: map[string]model.Milestone{},
		deliveries: map[string]model.DeliverySubmission{},
		files:      map[string]model.ProjectFile{},
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for k, v := range st.projects {
		c.projects[k] = v
	}
	for k, v := range st.milestones {
		c.milestones[k] = v
	}
	for k, v := range st.deliveries {
		c.deliveries[k] = v
	}
	for k, v := range st.files {
		c.files[k] = v
	}
	c.messages = append([]model.ProjectMessage(nil), st.messages...)
	return c
}

// NewMemoryStore は空の MemoryStore を生成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: newMemState(), now: time.Now}
}

// Ping は常に成功する
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Projects() ProjectRepository     { return memProjects{s} }
func (s *MemoryStore) Milestones() MilestoneRepository { return memMilestones{s} }
func (s *MemoryStore) Deliveries() DeliveryRepository  { return memDeliveries{s} }
func (s *MemoryStore) Messages() MessageRepository     { return memMessages{s} }
func (s *MemoryStore) Files() FileRepository           { return memFiles{s} }

// WithinTx はトランザクションを直列化して実行する
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{st: s.st.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// with は状態ロックを取って f を実行する
func (s *MemoryStore) with(ctx context.Context, f func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.st)
}

// ---------------------------------------------------------------------------
// projects
// ---------------------------------------------------------------------------

type memProjects struct{ s *MemoryStore }

func (r memProjects) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var out *model.Project
	err := r.s.with(ctx, func(st *memState) error {
		p, ok := st.projects[id]
		if !ok {
			return ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// LockByID は WithinTx が全体を直列化しているため GetByID と同じ
func (r memProjects) LockByID(ctx context.Context, id string) (*model.Project, error) {
	return r.GetByID(ctx, id)
}

func (r memProjects) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	all, err := r.filter(ctx, func(*model.Project) bool { return true })
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memProjects) ListByMemberID(ctx context.Context, userID string) ([]*model.Project, error) {
	return r.filter(ctx, func(p *model.Project) bool { return p.IsMember(userID) })
}

func (r memProjects) filter(ctx context.Context, keep func(*model.Project) bool) ([]*model.Project, error) {
	var out []*model.Project
	err := r.s.with(ctx, func(st *memState) error {
		for _, p := range st.projects {
			p := p
			if keep(&p) {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r memProjects) Create(ctx context.Context, project *model.Project) error {
	return r.s.with(ctx, func(st *memState) error {
		if project.ID == "" {
			project.ID = uuid.NewString()
		}
		now := r.s.now()
		project.CreatedAt, project.UpdatedAt = now, now
		st.projects[project.ID] = *project
		return nil
	})
}

func (r memProjects) UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	return r.s.with(ctx, func(st *memState) error {
		p, ok := st.projects[id]
		if !ok {
			return ErrNotFound
		}
		p.Status = status
		p.UpdatedAt = r.s.now()
		st.projects[id] = p
		return nil
	})
}

func (r memProjects) UpdateTalent(ctx context.Context, id, talentID string) error {
	return r.s.with(ctx, func(st *memState) error {
		p, ok := st.projects[id]
		if !ok {
			return ErrNotFound
		}
		t := talentID
		p.TalentID = &t
		p.UpdatedAt = r.s.now()
		st.projects[id] = p
		return nil
	})
}

// ---------------------------------------------------------------------------
// milestones
// ---------------------------------------------------------------------------

type memMilestones struct{ s *MemoryStore }

func (r memMilestones) GetByID(ctx context.Context, projectID, id string) (*model.Milestone, error) {
	var out *model.Milestone
	err := r.s.with(ctx, func(st *memState) error {
		m, ok := st.milestones[id]
		if !ok || m.ProjectID != projectID {
			return ErrNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

// LockByID は WithinTx が全体を直列化しているため GetByID と同じ
func (r memMilestones) LockByID(ctx context.Context, projectID, id string) (*model.Milestone, error) {
	return r.GetByID(ctx, projectID, id)
}

func (r memMilestones) ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	var out []*model.Milestone
	err := r.s.with(ctx, func(st *memState) error {
		for _, m := range st.milestones {
			m := m
			if m.ProjectID == projectID {
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r memMilestones) Create(ctx context.Context, m *model.Milestone) error {
	return r.s.with(ctx, func(st *memState) error {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		now := r.s.now()
		m.CreatedAt, m.UpdatedAt = now, now
		st.milestones[m.ID] = *m
		return nil
	})
}

func (r memMilestones) UpdateStatus(ctx context.Context, projectID, id string, status model.MilestoneStatus) error {
	return r.s.with(ctx, func(st *memState) error {
		m, ok := st.milestones[id]
		if !ok || m.ProjectID != projectID {
			return ErrNotFound
		}
		m.Status = status
		m.UpdatedAt = r.s.now()
		st.milestones[id] = m
		return nil
	})
}

// ---------------------------------------------------------------------------
// deliveries
// ---------------------------------------------------------------------------

type memDeliveries struct{ s *MemoryStore }

func (r memDeliveries) GetByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error) {
	var out *model.DeliverySubmission
	err := r.s.with(ctx, func(st *memState) error {
		d, ok := st.deliveries[id]
		if !ok || d.ProjectID != projectID {
			return ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r memDeliveries) LockByID(ctx context.Context, projectID, id string) (*model.DeliverySubmission, error) {
	return r.GetByID(ctx, projectID, id)
}

func (r memDeliveries) ListByProjectID(ctx context.Context, projectID string) ([]*model.DeliverySubmission, error) {
	var out []*model.DeliverySubmission
	err := r.s.with(ctx, func(st *memState) error {
		for _, d := range st.deliveries {
			d := d
			if d.ProjectID == projectID {
				out = append(out, &d)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r memDeliveries) Create(ctx context.Context, d *model.DeliverySubmission) error {
	return r.s.with(ctx, func(st *memState) error {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		now := r.s.now()
		d.CreatedAt, d.UpdatedAt = now, now
		st.deliveries[d.ID] = *d
		return nil
	})
}

func (r memDeliveries) UpdateStatus(ctx context.Context, projectID, id string, status model.DeliveryStatus) error {
	return r.s.with(ctx, func(st *memState) error {
		d, ok := st.deliveries[id]
		if !ok || d.ProjectID != projectID {
			return ErrNotFound
		}
		d.Status = status
		d.UpdatedAt = r.s.now()
		st.deliveries[id] = d
		return nil
	})
}

// ---------------------------------------------------------------------------
// messages
// ---------------------------------------------------------------------------

type memMessages struct{ s *MemoryStore }

func (r memMessages) ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectMessage, error) {
	var out []*model.ProjectMessage
	err := r.s.with(ctx, func(st *memState) error {
		for _, m := range st.messages {
			m := m
			if m.ProjectID == projectID {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r memMessages) Insert(ctx context.Context, m *model.ProjectMessage) error {
	return r.s.with(ctx, func(st *memState) error {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = r.s.now()
		}
		st.messages = append(st.messages, *m)
		return nil
	})
}

// ---------------------------------------------------------------------------
// files
// ---------------------------------------------------------------------------

type memFiles struct{ s *MemoryStore }

func (r memFiles) GetByID(ctx context.Context, projectID, id string) (*model.ProjectFile, error) {
	var out *model.ProjectFile
	err := r.s.with(ctx, func(st *memState) error {
		f, ok := st.files[id]
		if !ok || f.ProjectID != projectID {
			return ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r memFiles) ListByProjectID(ctx context.Context, projectID string) ([]*model.ProjectFile, error) {
	var out []*model.ProjectFile
	err := r.s.with(ctx, func(st *memState) error {
		for _, f := range st.files {
			f := f
			if f.ProjectID == projectID {
				out = append(out, &f)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r memFiles) Create(ctx context.Context, f *model.ProjectFile) error {
	return r.s.with(ctx, func(st *memState) error {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.CreatedAt = r.s.now()
		st.files[f.ID] = *f
		return nil
	})
}
