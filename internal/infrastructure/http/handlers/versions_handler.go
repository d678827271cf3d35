package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/version"
	"github.com/projectnexus/nexus/internal/domain"
)

// DefaultMaxUploadBytes caps a multipart upload when no limit is configured.
const DefaultMaxUploadBytes = 100 << 20

// VersionUseCases groups the version operations served over HTTP.
type VersionUseCases struct {
	List      *version.ListVersions
	Get       *version.GetVersion
	Create    *version.CreateVersion
	Upload    *version.UploadVersion
	UploadURL *version.UploadURL
	Status    *version.UpdateVersionStatus
	Delete    *version.DeleteVersion
	Revert    *version.RevertToVersion
}

// VersionsHandler serves /api/projects/{id}/versions.
type VersionsHandler struct {
	handlerBase
	uc        VersionUseCases
	maxUpload int64
}

func NewVersionsHandler(uc VersionUseCases, maxUpload int64, log zerolog.Logger) *VersionsHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &VersionsHandler{handlerBase: handlerBase{log: log}, uc: uc, maxUpload: maxUpload}
}

func (h *VersionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.List.Execute(r.Context(), version.ListVersionsInput{ProjectID: id, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"approved": newVersionViews(res.Approved),
		"pending":  newVersionViews(res.Pending),
	})
}

// Create registers a file that is already in storage, typically after a
// presigned upload.
func (h *VersionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	var body struct {
		FileKey       string `json:"file_key" validate:"required_without=FileURL,max=512"`
		FileURL       string `json:"file_url" validate:"omitempty,url,max=2048"`
		FileName      string `json:"file_name" validate:"required,max=255"`
		FileSize      int64  `json:"file_size" validate:"gte=0"`
		FileType      string `json:"file_type" validate:"max=255"`
		Notes         string `json:"notes" validate:"max=2000"`
		VersionNumber int    `json:"version_number" validate:"gte=0"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.Create.Execute(r.Context(), version.CreateVersionInput{
		ProjectID:     id,
		Actor:         userID,
		FileKey:       body.FileKey,
		FileURL:       body.FileURL,
		FileName:      body.FileName,
		FileSize:      body.FileSize,
		FileType:      body.FileType,
		Notes:         body.Notes,
		VersionNumber: body.VersionNumber,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, createdMessage(res.Version), newVersionView(res.Version))
}

func createdMessage(v *domain.Version) string {
	if v.Status == domain.VersionApproved {
		return "version created"
	}
	return "version submitted for approval"
}

// UploadFile streams a multipart "file" part to storage.
func (h *VersionsHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErr(w, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "file too large")
			return
		}
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "file is required")
		return
	}
	defer file.Close()

	number := 0
	if s := strings.TrimSpace(r.FormValue("version_number")); s != "" {
		number, err = strconv.Atoi(s)
		if err != nil || number < 0 {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "version_number must be a non-negative integer")
			return
		}
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := h.uc.Upload.Execute(r.Context(), version.UploadVersionInput{
		ProjectID:     id,
		Actor:         userID,
		FileName:      header.Filename,
		ContentType:   contentType,
		Size:          header.Size,
		Body:          file,
		Notes:         r.FormValue("notes"),
		VersionNumber: number,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, createdMessage(res.Version), newVersionView(res.Version))
}

// UploadURL presigns a direct upload for ?file_name=&content_type=.
func (h *VersionsHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := h.uc.UploadURL.Execute(r.Context(), version.UploadURLInput{
		ProjectID:   id,
		Actor:       userID,
		FileName:    q.Get("file_name"),
		ContentType: q.Get("content_type"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_url": res.UploadURL,
		"file_key":   res.Key,
		"expires_in": int(res.ExpiresIn.Seconds()),
	})
}

func (h *VersionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	vid, ok := versionParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.Get.Execute(r.Context(), version.GetVersionInput{ProjectID: id, VersionID: vid, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":      newVersionView(res.Version),
		"download_url": res.DownloadURL,
		"expires_in":   int(res.ExpiresIn.Seconds()),
	})
}

// UpdateStatus approves or rejects a pending version.
func (h *VersionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	vid, ok := versionParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string  `json:"status" validate:"required,oneof=approved rejected"`
		Notes  *string `json:"notes" validate:"omitnil,max=2000"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.Status.Execute(r.Context(), version.UpdateVersionStatusInput{
		ProjectID: id,
		VersionID: vid,
		Actor:     userID,
		Status:    domain.VersionStatus(body.Status),
		Notes:     body.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "version "+body.Status, map[string]interface{}{
		"version": newVersionView(res.Version),
		"project": newProjectView(res.Project, userID),
	})
}

func (h *VersionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	vid, ok := versionParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.Delete.Execute(r.Context(), version.DeleteVersionInput{ProjectID: id, VersionID: vid, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "version deleted", newProjectView(res.Project, userID))
}

// Revert makes an approved version current and discards newer ones.
func (h *VersionsHandler) Revert(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	vid, ok := versionParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.Revert.Execute(r.Context(), version.RevertInput{ProjectID: id, VersionID: vid, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "reverted to version "+strconv.Itoa(res.Target.VersionNumber), map[string]interface{}{
		"project":          newProjectView(res.Project, userID),
		"current_version":  newVersionView(res.Target),
		"deleted_versions": len(res.Deleted),
		"files_not_freed":  res.FilesNotFreed,
	})
}
