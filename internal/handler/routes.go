package handler

import (
	"net/http"
)

// Routes は API の全ハンドラをまとめる
type Routes struct {
	Base       *Handler
	Projects   *ProjectHandler
	Milestones *MilestoneHandler
	Deliveries *DeliveryHandler
	Messages   *MessageHandler
	Files      *FileHandler
}

// Register は mux に API ルートを登録する。wrapAuth は認証ミドルウェア
func (rt Routes) Register(mux *http.ServeMux, wrapAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/health", rt.Base.Health)

	authed := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, wrapAuth(fn))
	}

	authed("POST /api/projects", rt.Projects.Create)
	authed("GET /api/me/projects", rt.Projects.MyProjects)
	authed("GET /api/admin/projects", rt.Projects.AdminList)
	authed("GET /api/projects/{id}", rt.Projects.Get)
	authed("GET /api/projects/{id}/workspace", rt.Projects.Workspace)
	authed("PATCH /api/projects/{id}/status", rt.Projects.ChangeStatus)
	authed("PUT /api/projects/{id}/talent", rt.Projects.AssignTalent)

	authed("GET /api/projects/{id}/messages", rt.Messages.List)
	authed("POST /api/client/projects/{id}/messages", rt.Messages.SendClient)
	authed("POST /api/talent/projects/{id}/messages", rt.Messages.SendTalent)

	authed("GET /api/projects/{id}/files", rt.Files.List)
	authed("POST /api/projects/{id}/files", rt.Files.Upload)

	authed("POST /api/client/projects/{id}/milestones", rt.Milestones.Create)
	authed("PATCH /api/client/projects/{id}/milestones/{mid}/status", rt.Milestones.ClientSetStatus)
	authed("PATCH /api/talent/projects/{id}/milestones/{mid}/status", rt.Milestones.TalentSetStatus)

	authed("POST /api/client/projects/{id}/deliveries/{did}/review", rt.Deliveries.Review)
	authed("POST /api/talent/projects/{id}/deliveries", rt.Deliveries.Submit)
}
