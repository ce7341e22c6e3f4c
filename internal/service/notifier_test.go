package service

import (
	"context"
	"errors"
	"testing"

	"github.com/workbridge/backend/internal/model"
)

func TestNotifiers_CallsAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("redis down")
	a := &mockNotifier{workspaceChangedFunc: func(ctx context.Context, ev model.WorkspaceEvent) error { return errA }}
	b := &mockNotifier{}

	err := Notifiers{a, b}.WorkspaceChanged(context.Background(), model.WorkspaceEvent{Type: model.EventMessagePosted})
	if !errors.Is(err, errA) {
		t.Errorf("expected joined error to contain errA, got %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("every notifier should be called, got a=%d b=%d", a.count(), b.count())
	}
}

func TestNotify_FailureDoesNotBreakOperation(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	f.notifier.workspaceChangedFunc = func(ctx context.Context, ev model.WorkspaceEvent) error {
		return errors.New("broker unavailable")
	}
	svc := NewMessageService(f.store, f.notifier)

	out, err := svc.SendClient(context.Background(), clientID, projectID, "hello")
	if err != nil || !out.Applied {
		t.Fatalf("notify failure must not surface, got %+v err=%v", out, err)
	}
	if f.notifier.events[0].At.IsZero() {
		t.Error("event time should be stamped")
	}
}

func TestNarrator_Emit(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	if err := f.narrator.Emit(context.Background(), f.store.Messages(), projectID, "Something happened."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := f.messages(t)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if !m.IsSystem() || m.SenderID != nil || m.Body != "Something happened." {
		t.Errorf("unexpected message: %+v", m)
	}
	if got := m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"); got != fixedClock {
		t.Errorf("expected narrator clock %s, got %s", fixedClock, got)
	}
}
