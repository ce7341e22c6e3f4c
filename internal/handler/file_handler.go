package handler

import (
	"errors"
	"net/http"

	"github.com/workbridge/backend/internal/service"
)

// multipart のヘッダー分の余裕
const multipartOverhead = 1 << 20

// FileHandler はワークスペースのファイルの HTTP ハンドラ
type FileHandler struct {
	fileService service.FileService
	maxBytes    int64
}

// NewFileHandler は FileHandler を生成する。maxBytes はファイル本体の上限
func NewFileHandler(fileService service.FileService, maxBytes int64) *FileHandler {
	return &FileHandler{fileService: fileService, maxBytes: maxBytes}
}

// Upload は POST /api/projects/{id}/files を処理する（multipart の "file" フィールド）
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := caller(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "file_required")
		return
	}
	defer file.Close()

	projectID := r.PathValue("id")
	f, err := h.fileService.Upload(r.Context(), userID, projectID, service.UploadInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// List は GET /api/projects/{id}/files を処理する
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := caller(r)
	files, err := h.fileService.List(r.Context(), userID, isAdmin, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}
