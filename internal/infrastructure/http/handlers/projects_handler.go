package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
)

// ProjectUseCases groups the project operations served over HTTP.
type ProjectUseCases struct {
	Create        *project.CreateProject
	List          *project.ListProjects
	Get           *project.GetProject
	Update        *project.UpdateProject
	Delete        *project.DeleteProject
	AddUser       *project.AddCollaborator
	RemoveUser    *project.RemoveCollaborator
	RequestAccess *project.RequestAccess
	ListRequests  *project.ListAccessRequests
	HandleRequest *project.HandleAccessRequest
	GenerateShare *project.GenerateShareLink
	ResolveShare  *project.ResolveShareLink
}

// ProjectsHandler serves /api/projects and /api/share.
type ProjectsHandler struct {
	handlerBase
	uc ProjectUseCases
}

func NewProjectsHandler(uc ProjectUseCases, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{handlerBase: handlerBase{log: log}, uc: uc}
}

func summaryViews(list []project.Summary, viewer domain.UserID) []projectView {
	out := make([]projectView, 0, len(list))
	for _, s := range list {
		out = append(out, newProjectView(s.Project, viewer))
	}
	return out
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.uc.List.Execute(r.Context(), project.ListProjectsInput{UserID: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"all":      summaryViews(res.All, userID),
		"owned":    summaryViews(res.Owned, userID),
		"editable": summaryViews(res.Editable, userID),
		"viewable": summaryViews(res.Viewable, userID),
	})
}

type accessEntryBody struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	AccessType string `json:"access_type" validate:"required,oneof=editor viewer"`
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Name         string            `json:"name" validate:"required,max=200"`
		Description  string            `json:"description" validate:"max=2000"`
		AccessibleBy []accessEntryBody `json:"accessible_by" validate:"dive"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	initial := make([]domain.AccessEntry, 0, len(body.AccessibleBy))
	for _, e := range body.AccessibleBy {
		id, err := domain.ParseUserID(e.UserID)
		if err != nil {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid user_id")
			return
		}
		initial = append(initial, domain.AccessEntry{UserID: id, Type: domain.AccessType(e.AccessType)})
	}
	res, err := h.uc.Create.Execute(r.Context(), project.CreateProjectInput{
		Name:          strings.TrimSpace(body.Name),
		Description:   body.Description,
		Creator:       userID,
		InitialAccess: initial,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "project created", newProjectView(res.Project, userID))
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.Get.Execute(r.Context(), project.GetProjectInput{ProjectID: id, UserID: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectView(res.Project, userID))
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Name        *string `json:"name" validate:"omitnil,min=1,max=200"`
		Description *string `json:"description" validate:"omitnil,max=2000"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.Update.Execute(r.Context(), project.UpdateProjectInput{
		ProjectID:   id,
		Actor:       userID,
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "project updated", newProjectView(res.Project, userID))
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.Delete.Execute(r.Context(), project.DeleteProjectInput{ProjectID: id, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "project deleted", map[string]int{
		"deleted_versions": res.DeletedVersions,
		"files_removed":    res.FilesRemoved,
	})
}

// AddUser grants a role to the user with the given email.
func (h *ProjectsHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Email      string `json:"email" validate:"required,email,max=254"`
		AccessType string `json:"access_type" validate:"required,oneof=editor viewer"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.AddUser.Execute(r.Context(), project.AddCollaboratorInput{
		ProjectID:  id,
		Actor:      userID,
		Email:      SanitizeEmail(body.Email),
		AccessType: domain.AccessType(body.AccessType),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "collaborator added", newProjectView(res.Project, userID))
}

func (h *ProjectsHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	target, err := domain.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid user id")
		return
	}
	res, err := h.uc.RemoveUser.Execute(r.Context(), project.RemoveCollaboratorInput{ProjectID: id, Actor: userID, UserID: target})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "collaborator removed", newProjectView(res.Project, userID))
}

func (h *ProjectsHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Message     string `json:"message" validate:"max=1000"`
		RequestType string `json:"request_type" validate:"omitempty,oneof=editor"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.RequestAccess.Execute(r.Context(), project.RequestAccessInput{
		ProjectID:   id,
		Requester:   userID,
		Message:     strings.TrimSpace(body.Message),
		RequestType: domain.AccessType(body.RequestType),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "access request submitted", newRequestView(res.Request))
}

func (h *ProjectsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	res, err := h.uc.ListRequests.Execute(r.Context(), project.ListAccessRequestsInput{ProjectID: id, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]requestView, 0, len(res.Requests))
	for _, req := range res.Requests {
		out = append(out, newRequestView(req))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRequest approves or rejects a pending access request.
func (h *ProjectsHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request id")
		return
	}
	var body struct {
		Status     string `json:"status" validate:"required,oneof=approved rejected"`
		AccessType string `json:"access_type" validate:"omitempty,oneof=editor viewer"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.HandleRequest.Execute(r.Context(), project.HandleAccessRequestInput{
		ProjectID:   id,
		Actor:       userID,
		RequestID:   requestID,
		Decision:    domain.RequestStatus(body.Status),
		GrantedType: domain.AccessType(body.AccessType),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "access request "+body.Status, map[string]interface{}{
		"request": newRequestView(res.Request),
		"project": newProjectView(res.Project, userID),
	})
}

func (h *ProjectsHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Days int `json:"days" validate:"gte=0,lte=365"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.uc.GenerateShare.Execute(r.Context(), project.GenerateShareLinkInput{ProjectID: id, Actor: userID, Days: body.Days})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"share_url":  res.ShareURL,
		"token":      res.Token,
		"expires_in": res.ExpiresIn,
		"expires_at": res.ExpiresAt,
	})
}

// ResolveShare is public: the token itself authorizes a read-only view.
func (h *ProjectsHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.ResolveShare.Execute(r.Context(), project.ResolveShareLinkInput{Token: chi.URLParam(r, "token")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p := res.Project
	view := map[string]interface{}{
		"id":          p.ID.String(),
		"name":        p.Name,
		"description": p.Description,
		"shared_by":   res.SharedBy.String(),
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
	if p.CurrentVersion != nil {
		view["current_version"] = p.CurrentVersion.String()
	}
	writeJSON(w, http.StatusOK, view)
}
