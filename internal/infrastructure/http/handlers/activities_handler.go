package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/activity"
)

// ActivitiesHandler serves a project's activity feed.
type ActivitiesHandler struct {
	handlerBase
	list     *activity.List
	timeline *activity.Timeline
}

func NewActivitiesHandler(list *activity.List, timeline *activity.Timeline, log zerolog.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{handlerBase: handlerBase{log: log}, list: list, timeline: timeline}
}

// queryInt parses a positive integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// List pages through ?limit=&page=.
func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a positive integer")
		return
	}
	page, ok := queryInt(r, "page")
	if !ok {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "page must be a positive integer")
		return
	}
	res, err := h.list.Execute(r.Context(), activity.ListInput{ProjectID: id, Actor: userID, Limit: limit, Page: page})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": newActivityViews(res.Activities),
		"pagination": map[string]int{
			"page":  res.Page,
			"limit": res.Limit,
			"total": res.Total,
			"pages": res.Pages,
		},
	})
}

func (h *ActivitiesHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := projectParam(w, r)
	if !ok {
		return
	}
	items, err := h.timeline.Execute(r.Context(), activity.TimelineInput{ProjectID: id, Actor: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newActivityViews(items))
}
