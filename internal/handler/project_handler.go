package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/workbridge/backend/internal/service"
)

// parseDeadline は "YYYY-MM-DD" または RFC3339 の文字列を *time.Time にパースする。
// 空文字やパースできない場合は nil を返す。
func parseDeadline(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

// WorkspaceVersioner はワークスペースの無効化バージョンを返す（Redis）
type WorkspaceVersioner interface {
	Version(ctx context.Context, projectID string) (int64, error)
}

const workspaceVersionHeader = "X-Workspace-Version"

// ProjectHandler はプロジェクトとワークスペースの HTTP ハンドラ
type ProjectHandler struct {
	projectService service.ProjectService
	versioner      WorkspaceVersioner // optional, nil = header omitted
}

// NewProjectHandler は ProjectHandler を生成する
func NewProjectHandler(projectService service.ProjectService, versioner WorkspaceVersioner) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, versioner: versioner}
}

// Create は POST /api/projects を処理する（呼び出し元がクライアントになる）
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	budget := 0
	if b := strings.TrimSpace(bag.Get("budget")); b != "" {
		if budget, err = strconv.Atoi(b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_budget")
			return
		}
	}

	project, err := h.projectService.Create(r.Context(), userID, service.CreateProjectInput{
		Title:       bag.Get("title"),
		Description: bag.Get("description"),
		Budget:      budget,
		Deadline:    parseDeadline(bag.Get("deadline")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// Get は GET /api/projects/{id} を処理する
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := caller(r)
	project, err := h.projectService.GetByID(r.Context(), userID, isAdmin, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// MyProjects は GET /api/me/projects を処理する
func (h *ProjectHandler) MyProjects(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	projects, err := h.projectService.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// AdminList は GET /api/admin/projects を処理する
func (h *ProjectHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	_, isAdmin := caller(r)
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	projects, err := h.projectService.ListAll(r.Context(), isAdmin, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// ChangeStatus は PATCH /api/projects/{id}/status を処理する
func (h *ProjectHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	project, err := h.projectService.ChangeStatus(r.Context(), userID, r.PathValue("id"), bag.Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// AssignTalent は PUT /api/projects/{id}/talent を処理する
func (h *ProjectHandler) AssignTalent(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	bag, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	project, err := h.projectService.AssignTalent(r.Context(), userID, r.PathValue("id"), bag.Get("talent_id", "talentId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Workspace は GET /api/projects/{id}/workspace を処理する
func (h *ProjectHandler) Workspace(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := caller(r)
	projectID := r.PathValue("id")

	// バージョンは読み込み前に取る。読み込み中の変更は次のバージョンで検知される
	if h.versioner != nil {
		if v, err := h.versioner.Version(r.Context(), projectID); err != nil {
			slog.Warn("workspace version lookup failed", "project_id", projectID, "error", err)
		} else {
			w.Header().Set(workspaceVersionHeader, strconv.FormatInt(v, 10))
		}
	}

	ws, err := h.projectService.Workspace(r.Context(), userID, isAdmin, projectID)
	if err != nil {
		w.Header().Del(workspaceVersionHeader)
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}
