package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/workbridge/backend/internal/model"
	"github.com/workbridge/backend/internal/repository"
	"github.com/workbridge/backend/internal/service"
	"github.com/workbridge/backend/internal/storage"
	"github.com/workbridge/backend/pkg/auth"
)

// ---------------------------------------------------------------------------
// Test API: 実サービス + MemoryStore + DevAuth（X-Dev-User-ID で利用者を切り替える）
// ---------------------------------------------------------------------------

const (
	testClient  = "client-1"
	testTalent  = "talent-1"
	testOutside = "outsider-1"
)

type mockVersioner struct {
	versionFunc func(ctx context.Context, projectID string) (int64, error)
}

func (m *mockVersioner) Version(ctx context.Context, projectID string) (int64, error) {
	if m.versionFunc != nil {
		return m.versionFunc(ctx, projectID)
	}
	return 0, nil
}

type testAPI struct {
	t     *testing.T
	mux   *http.ServeMux
	store *repository.MemoryStore
}

func newTestAPI(t *testing.T, versioner WorkspaceVersioner, maxUpload int64) *testAPI {
	t.Helper()
	store := repository.NewMemoryStore()
	narrator := service.NewNarrator(nil)
	files := storage.NewLocalStorage(t.TempDir(), "/uploads")

	routes := Routes{
		Base:       New(store, "http://localhost:3000"),
		Projects:   NewProjectHandler(service.NewProjectService(store, narrator, nil), versioner),
		Milestones: NewMilestoneHandler(service.NewMilestoneService(store, narrator, nil)),
		Deliveries: NewDeliveryHandler(service.NewDeliveryService(store, narrator, nil)),
		Messages:   NewMessageHandler(service.NewMessageService(store, nil)),
		Files:      NewFileHandler(service.NewFileService(store, files, maxUpload, nil), maxUpload),
	}
	mux := http.NewServeMux()
	routes.Register(mux, auth.DevAuth)
	return &testAPI{t: t, mux: mux, store: store}
}

func (a *testAPI) do(req *http.Request, user string) *httptest.ResponseRecorder {
	a.t.Helper()
	if user != "" {
		req.Header.Set(auth.DevUserHeader, user)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) json(method, path, user string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		a.t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, user)
}

func (a *testAPI) form(method, path, user string, values url.Values) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, user)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// setupProject は client-1 が作成し talent-1 をアサインした active なプロジェクトを返す
func (a *testAPI) setupProject() string {
	a.t.Helper()
	rec := a.json(http.MethodPost, "/api/projects", testClient, map[string]any{
		"title": "Landing page", "budget": 120000, "deadline": "2026-06-30",
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create project: %d %s", rec.Code, rec.Body.String())
	}
	p := decode[model.Project](a.t, rec)

	if rec := a.json(http.MethodPut, "/api/projects/"+p.ID+"/talent", testClient, map[string]string{"talent_id": testTalent}); rec.Code != http.StatusOK {
		a.t.Fatalf("assign talent: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.form(http.MethodPatch, "/api/projects/"+p.ID+"/status", testClient, url.Values{"status": {"active"}}); rec.Code != http.StatusOK {
		a.t.Fatalf("activate: %d %s", rec.Code, rec.Body.String())
	}
	return p.ID
}

func (a *testAPI) createMilestone(projectID, title string) string {
	a.t.Helper()
	rec := a.form(http.MethodPost, "/api/client/projects/"+projectID+"/milestones", testClient, url.Values{"title": {title}})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create milestone: %d %s", rec.Code, rec.Body.String())
	}
	return decode[model.Milestone](a.t, rec).ID
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

func TestAPI_FullWorkflow(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()
	mid := api.createMilestone(pid, "Wireframes")

	rec := api.form(http.MethodPatch, "/api/talent/projects/"+pid+"/milestones/"+mid+"/status", testTalent, url.Values{"status": {"in_progress"}})
	out := decode[outcomeResponse](t, rec)
	if rec.Code != http.StatusOK || !out.Applied || out.Invalidate != "/projects/"+pid+"/workspace" {
		t.Fatalf("talent start: %d %+v", rec.Code, out)
	}

	rec = api.json(http.MethodPost, "/api/talent/projects/"+pid+"/deliveries", testTalent, map[string]any{
		"summary": "Figma link", "link": "https://example.com/figma", "milestone_id": mid,
	})
	out = decode[outcomeResponse](t, rec)
	if !out.Applied || out.EntityID == "" {
		t.Fatalf("submit: %d %+v", rec.Code, out)
	}
	did := out.EntityID

	rec = api.form(http.MethodPost, "/api/client/projects/"+pid+"/deliveries/"+did+"/review", testClient, url.Values{"decision": {"approve"}})
	if out := decode[outcomeResponse](t, rec); !out.Applied {
		t.Fatalf("review: %d %+v", rec.Code, out)
	}

	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+pid+"/workspace", nil), testTalent)
	if rec.Code != http.StatusOK {
		t.Fatalf("workspace: %d %s", rec.Code, rec.Body.String())
	}
	ws := decode[model.Workspace](t, rec)
	if len(ws.Milestones) != 1 || ws.Milestones[0].Status != model.MilestoneStatusApproved {
		t.Errorf("milestone should be approved: %+v", ws.Milestones)
	}
	if len(ws.Deliveries) != 1 || ws.Deliveries[0].Status != model.DeliveryStatusApproved {
		t.Errorf("delivery should be approved: %+v", ws.Deliveries)
	}
	last := ws.Messages[len(ws.Messages)-1]
	if last.Role != model.RoleSystem || last.Body != `Client approved the delivery for milestone "Wireframes".` {
		t.Errorf("unexpected last message: %+v", last)
	}
}

func TestAPI_RejectedCommand_Returns200WithReason(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()
	mid := api.createMilestone(pid, "Copy")

	rec := api.json(http.MethodPatch, "/api/client/projects/"+pid+"/milestones/"+mid+"/status", testClient, map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode[outcomeResponse](t, rec)
	if out.Applied || out.Reason != service.RejectStatusNotAllowed {
		t.Errorf("expected rejected status_not_allowed, got %+v", out)
	}

	rec = api.json(http.MethodPost, "/api/client/projects/"+pid+"/messages", testClient, map[string]string{"body": "   "})
	if out := decode[outcomeResponse](t, rec); out.Applied || out.Reason != service.RejectEmptyBody {
		t.Errorf("expected empty_body, got %+v", out)
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()
	mid := api.createMilestone(pid, "Copy")

	cases := []struct {
		name string
		rec  *httptest.ResponseRecorder
		code int
		err  string
	}{
		{
			"outsider review",
			api.form(http.MethodPost, "/api/client/projects/"+pid+"/deliveries/d1/review", testOutside, url.Values{"decision": {"approve"}}),
			http.StatusForbidden, "forbidden",
		},
		{
			"talent on client path",
			api.form(http.MethodPatch, "/api/client/projects/"+pid+"/milestones/"+mid+"/status", testTalent, url.Values{"status": {"approved"}}),
			http.StatusForbidden, "forbidden",
		},
		{
			"unknown project",
			api.form(http.MethodPost, "/api/talent/projects/nope/messages", testTalent, url.Values{"body": {"hi"}}),
			http.StatusNotFound, "not_found",
		},
		{
			"unknown milestone",
			api.form(http.MethodPatch, "/api/talent/projects/"+pid+"/milestones/ghost/status", testTalent, url.Values{"status": {"completed"}}),
			http.StatusNotFound, "not_found",
		},
		{
			"invalid lifecycle move",
			api.json(http.MethodPatch, "/api/projects/"+pid+"/status", testClient, map[string]string{"status": "draft"}),
			http.StatusConflict, "invalid_transition",
		},
		{
			"empty project title",
			api.json(http.MethodPost, "/api/projects", testClient, map[string]string{"title": ""}),
			http.StatusBadRequest, "invalid_input",
		},
		{
			"admin list without admin",
			api.do(httptest.NewRequest(http.MethodGet, "/api/admin/projects", nil), testClient),
			http.StatusForbidden, "forbidden",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.rec.Code != tc.code {
				t.Fatalf("expected %d, got %d (%s)", tc.code, tc.rec.Code, tc.rec.Body.String())
			}
			if got := decode[map[string]string](t, tc.rec)["error"]; got != tc.err {
				t.Errorf("expected error=%q, got %q", tc.err, got)
			}
		})
	}
}

func TestAPI_MalformedJSON(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()

	req := httptest.NewRequest(http.MethodPost, "/api/talent/projects/"+pid+"/deliveries", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := api.do(req, testTalent)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAPI_AdminOversight(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/projects?limit=10", nil)
	req.Header.Set("X-Dev-Admin", "true")
	rec := api.do(req, "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if list := decode[[]model.Project](t, rec); len(list) != 1 || list[0].ID != pid {
		t.Errorf("unexpected admin list: %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/projects/"+pid+"/workspace", nil)
	req.Header.Set("X-Dev-Admin", "true")
	if rec := api.do(req, "admin-1"); rec.Code != http.StatusOK {
		t.Errorf("admin workspace view: expected 200, got %d", rec.Code)
	}

	// 管理者でも当事者でなければ変更はできない
	req = httptest.NewRequest(http.MethodPost, "/api/client/projects/"+pid+"/messages", strings.NewReader(`{"body":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dev-Admin", "true")
	if rec := api.do(req, "admin-1"); rec.Code != http.StatusForbidden {
		t.Errorf("admin mutation: expected 403, got %d", rec.Code)
	}
}

func TestAPI_MyProjects(t *testing.T) {
	api := newTestAPI(t, nil, 0)
	pid := api.setupProject()

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/me/projects", nil), testTalent)
	if list := decode[[]model.Project](t, rec); len(list) != 1 || list[0].ID != pid {
		t.Errorf("talent should see the project: %+v", list)
	}
	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/me/projects", nil), testOutside)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("outsider should get empty array, got %s", body)
	}
}

func TestAPI_WorkspaceVersionHeader(t *testing.T) {
	api := newTestAPI(t, &mockVersioner{
		versionFunc: func(ctx context.Context, projectID string) (int64, error) { return 7, nil },
	}, 0)
	pid := api.setupProject()

	rec := api.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+pid+"/workspace", nil), testClient)
	if got := rec.Header().Get(workspaceVersionHeader); got != "7" {
		t.Errorf("expected version header 7, got %q", got)
	}

	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+pid+"/workspace", nil), testOutside)
	if rec.Code != http.StatusForbidden || rec.Header().Get(workspaceVersionHeader) != "" {
		t.Errorf("forbidden view should not leak version: %d %q", rec.Code, rec.Header().Get(workspaceVersionHeader))
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func multipartUpload(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAPI_FileUploadAndList(t *testing.T) {
	api := newTestAPI(t, nil, 1024)
	pid := api.setupProject()

	rec := api.do(multipartUpload(t, "/api/projects/"+pid+"/files", "brief.pdf", []byte("%PDF-1.7")), testClient)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	f := decode[model.ProjectFile](t, rec)
	if f.Name != "brief.pdf" || f.Size != 8 || !strings.HasPrefix(f.URL, "/uploads/projects/"+pid+"/") {
		t.Errorf("unexpected file: %+v", f)
	}

	rec = api.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+pid+"/files", nil), testTalent)
	if list := decode[[]model.ProjectFile](t, rec); len(list) != 1 || list[0].ID != f.ID {
		t.Errorf("unexpected list: %+v", list)
	}

	// アップロードしたファイルを納品物に添付できる
	rec = api.json(http.MethodPost, "/api/talent/projects/"+pid+"/deliveries", testTalent, map[string]string{"summary": "Brief", "fileId": f.ID})
	if out := decode[outcomeResponse](t, rec); !out.Applied {
		t.Errorf("submit with file: %+v", out)
	}
}

func TestAPI_FileUpload_Errors(t *testing.T) {
	api := newTestAPI(t, nil, 4)
	pid := api.setupProject()

	rec := api.do(multipartUpload(t, "/api/projects/"+pid+"/files", "big.bin", []byte("123456")), testClient)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized file: expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+pid+"/files", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	if rec := api.do(req, testClient); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file field: expected 400, got %d", rec.Code)
	}

	if rec := api.do(multipartUpload(t, "/api/projects/"+pid+"/files", "a.txt", []byte("x")), testOutside); rec.Code != http.StatusForbidden {
		t.Errorf("outsider upload: expected 403, got %d", rec.Code)
	}
}
