package handler

import (
	"net/http"
	"strings"

	"github.com/workbridge/backend/internal/repository"
)

// Dependency はヘルスチェックに含める外部依存（Redis, RabbitMQ など）
type Dependency struct {
	Name string
	repository.DB
}

type Handler struct {
	db             repository.DB
	deps           []Dependency
	allowedOrigins map[string]bool
}

// New は Handler を生成する。frontendURLs はカンマ区切りで複数指定できる
func New(db repository.DB, frontendURLs string, deps ...Dependency) *Handler {
	origins := make(map[string]bool)
	for _, o := range strings.Split(frontendURLs, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = true
		}
	}
	return &Handler{db: db, deps: deps, allowedOrigins: origins}
}

// CORS は許可されたオリジンにだけ Access-Control-* を返す
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")
		if h.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", workspaceVersionHeader+", Retry-After")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
