package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go.propserve.dev/internal/common/repository"
	"go.propserve.dev/internal/notification"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationHandler handles the in-app notification feed
type NotificationHandler struct {
	repo notification.Repository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(repo notification.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// Routes returns the router for notification endpoints
func (h *NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/{id}/read", h.MarkRead)

	return r
}

// List handles GET /api/notifications?recipientId=...&page=...&pageSize=...
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("recipientId")
	if recipientID == "" {
		WriteBadRequest(w, "recipientId query parameter is required")
		return
	}

	page := parseIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseIntParam(r, "pageSize", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	skip := int64(page-1) * int64(pageSize)
	items, err := h.repo.FindInAppByRecipient(r.Context(), recipientID, skip, int64(pageSize))
	if err != nil {
		WriteInternalError(w, "failed to load notifications")
		return
	}

	unread, err := h.repo.CountUnread(r.Context(), recipientID)
	if err != nil {
		WriteInternalError(w, "failed to count unread notifications")
		return
	}

	WriteJSON(w, http.StatusOK, PagedResponse[*notification.InApp]{
		Data:     items,
		Page:     page,
		PageSize: pageSize,
		Unread:   unread,
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.MarkInAppRead(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteNotFound(w, "notification not found")
			return
		}
		WriteInternalError(w, "failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
