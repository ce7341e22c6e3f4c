package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/workbridge/backend/internal/model"
)

type mockStorage struct {
	saved       map[string][]byte
	deleted     []string
	saveFunc    func(ctx context.Context, key string, data io.Reader, contentType string) (string, int64, error)
	deleteCalls int
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: map[string][]byte{}}
}

func (m *mockStorage) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, int64, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, data, contentType)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", 0, err
	}
	m.saved[key] = b
	return "/uploads/" + key, int64(len(b)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.deleteCalls++
	m.deleted = append(m.deleted, key)
	delete(m.saved, key)
	return nil
}

func TestFileService_Upload_StoresAndRecords(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	st := newMockStorage()
	svc := NewFileService(f.store, st, 1024, f.notifier)

	file, err := svc.Upload(context.Background(), talentID, projectID, UploadInput{
		Name: "../../Logo.PNG", ContentType: "image/png", Body: strings.NewReader("pngdata"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Name != "Logo.PNG" || file.Size != 7 || file.UploaderID != talentID {
		t.Errorf("unexpected file: %+v", file)
	}
	if !strings.HasPrefix(file.StorageKey, "projects/"+projectID+"/") || !strings.HasSuffix(file.StorageKey, ".png") {
		t.Errorf("unexpected storage key %q", file.StorageKey)
	}
	if file.URL != "/uploads/"+file.StorageKey {
		t.Errorf("unexpected url %q", file.URL)
	}
	if _, ok := st.saved[file.StorageKey]; !ok {
		t.Error("expected bytes to be saved")
	}

	files, err := svc.List(context.Background(), clientID, false, projectID)
	if err != nil || len(files) != 1 || files[0].ID != file.ID {
		t.Errorf("list: %+v err=%v", files, err)
	}
	if f.notifier.count() != 1 || f.notifier.events[0].Type != model.EventFileUploaded {
		t.Errorf("expected file.uploaded event, got %+v", f.notifier.events)
	}
}

func TestFileService_Upload_DefaultContentType(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	svc := NewFileService(f.store, newMockStorage(), 0, nil)

	file, err := svc.Upload(context.Background(), clientID, projectID, UploadInput{Name: "notes", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.ContentType != "application/octet-stream" {
		t.Errorf("expected octet-stream, got %q", file.ContentType)
	}
	if strings.Contains(file.StorageKey, ".") {
		t.Errorf("extensionless name should give extensionless key, got %q", file.StorageKey)
	}
}

func TestFileService_Upload_TooLarge_Discarded(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	st := newMockStorage()
	svc := NewFileService(f.store, st, 4, nil)

	_, err := svc.Upload(context.Background(), clientID, projectID, UploadInput{Name: "big.bin", Body: strings.NewReader("12345")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if st.deleteCalls != 1 || len(st.saved) != 0 {
		t.Errorf("oversized file should be deleted, deletes=%d saved=%d", st.deleteCalls, len(st.saved))
	}
	files, _ := f.store.Files().ListByProjectID(context.Background(), projectID)
	if len(files) != 0 {
		t.Errorf("no metadata should be recorded, got %d", len(files))
	}
}

func TestFileService_Upload_Forbidden(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	st := newMockStorage()
	svc := NewFileService(f.store, st, 0, nil)

	_, err := svc.Upload(context.Background(), outsideID, projectID, UploadInput{Name: "a.txt", Body: strings.NewReader("x")})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(st.saved) != 0 {
		t.Error("nothing should be stored for forbidden uploads")
	}
}

func TestFileService_Upload_StorageError(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	st := newMockStorage()
	st.saveFunc = func(ctx context.Context, key string, data io.Reader, contentType string) (string, int64, error) {
		return "", 0, errors.New("disk full")
	}
	svc := NewFileService(f.store, st, 0, nil)

	if _, err := svc.Upload(context.Background(), clientID, projectID, UploadInput{Name: "a.txt", Body: strings.NewReader("x")}); err == nil {
		t.Error("expected storage error")
	}
}

func TestSafeExt(t *testing.T) {
	cases := map[string]string{
		"a.PDF":            ".pdf",
		"archive.tar":      ".tar",
		"noext":            "",
		"weird.p$f":        "",
		"long.abcdefghijk": "",
	}
	for in, want := range cases {
		if got := safeExt(in); got != want {
			t.Errorf("safeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
