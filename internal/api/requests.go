package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go.propserve.dev/internal/common/repository"
	"go.propserve.dev/internal/notification"
	"go.propserve.dev/internal/request"
	"go.propserve.dev/internal/sla"
)

// RequestHandler handles maintenance request endpoints
type RequestHandler struct {
	repo       request.Repository
	calculator *sla.Calculator
	dispatcher *notification.Dispatcher
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(repo request.Repository, calculator *sla.Calculator, dispatcher *notification.Dispatcher) *RequestHandler {
	return &RequestHandler{
		repo:       repo,
		calculator: calculator,
		dispatcher: dispatcher,
	}
}

// Routes returns the router for request endpoints
func (h *RequestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/assign", h.Assign)
	r.Post("/{id}/status", h.UpdateStatus)

	return r
}

// CreateRequestBody is the payload for creating a request
type CreateRequestBody struct {
	Title      string                 `json:"title"`
	PropertyID string                 `json:"propertyId,omitempty"`
	Priority   string                 `json:"priority"`
	Reporter   request.Party          `json:"reporter"`
	Notes      string                 `json:"notes,omitempty"`
	Channels   []notification.Channel `json:"channels,omitempty"`
}

// Create handles POST /api/requests.
// Deadlines are computed here, once, from priority and the creation time;
// nothing downstream ever recomputes them.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteBadRequest(w, "invalid JSON body")
		return
	}
	if body.Title == "" {
		WriteBadRequest(w, "title is required")
		return
	}
	if body.Reporter.ID == "" {
		WriteBadRequest(w, "reporter.id is required")
		return
	}

	createdAt := time.Now()
	deadlines := h.calculator.Calculate(sla.Priority(body.Priority), createdAt)

	req := &request.Request{
		Title:       body.Title,
		PropertyID:  body.PropertyID,
		Priority:    sla.Priority(body.Priority),
		Status:      request.StatusOpen,
		Reporter:    body.Reporter,
		Notes:       body.Notes,
		AcceptDue:   deadlines.AcceptDue,
		ArriveDue:   deadlines.ArriveDue,
		CompleteDue: deadlines.CompleteDue,
		CreatedAt:   createdAt,
	}

	if err := h.repo.Insert(r.Context(), req); err != nil {
		slog.Error("Failed to insert request", "error", err)
		WriteInternalError(w, "failed to create request")
		return
	}

	h.notify(r.Context(), notification.EventRequestCreated, req, body.Channels, notification.Payload{
		RequestTitle: req.Title,
		Notes:        req.Notes,
	}, req.Reporter)

	WriteJSON(w, http.StatusCreated, req)
}

// Get handles GET /api/requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteNotFound(w, "request not found")
			return
		}
		WriteInternalError(w, "failed to load request")
		return
	}

	WriteJSON(w, http.StatusOK, req)
}

// AssignBody is the payload for assigning a vendor
type AssignBody struct {
	Assignee request.Party          `json:"assignee"`
	Channels []notification.Channel `json:"channels,omitempty"`
}

// Assign handles POST /api/requests/{id}/assign
func (h *RequestHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body AssignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteBadRequest(w, "invalid JSON body")
		return
	}
	if body.Assignee.ID == "" {
		WriteBadRequest(w, "assignee.id is required")
		return
	}

	req, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteNotFound(w, "request not found")
			return
		}
		WriteInternalError(w, "failed to load request")
		return
	}

	if err := h.repo.UpdateAssignee(r.Context(), id, body.Assignee); err != nil {
		WriteInternalError(w, "failed to assign vendor")
		return
	}
	if req.Status == request.StatusOpen {
		if err := h.repo.UpdateStatus(r.Context(), id, request.StatusAssigned); err != nil {
			WriteInternalError(w, "failed to update status")
			return
		}
		req.Status = request.StatusAssigned
	}
	req.Assignee = &body.Assignee

	h.notify(r.Context(), notification.EventVendorAssigned, req, body.Channels, notification.Payload{
		RequestTitle: req.Title,
		AssigneeName: body.Assignee.Name,
	}, body.Assignee)

	WriteJSON(w, http.StatusOK, req)
}

// UpdateStatusBody is the payload for a status transition
type UpdateStatusBody struct {
	Status   string                 `json:"status"`
	Notes    string                 `json:"notes,omitempty"`
	Channels []notification.Channel `json:"channels,omitempty"`
}

// UpdateStatus handles POST /api/requests/{id}/status
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body UpdateStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteBadRequest(w, "invalid JSON body")
		return
	}

	newStatus := request.Status(body.Status)
	if !request.ValidStatus(newStatus) {
		WriteBadRequest(w, "unknown status")
		return
	}

	req, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteNotFound(w, "request not found")
			return
		}
		WriteInternalError(w, "failed to load request")
		return
	}

	oldStatus := req.Status
	if err := h.repo.UpdateStatus(r.Context(), id, newStatus); err != nil {
		WriteInternalError(w, "failed to update status")
		return
	}
	req.Status = newStatus

	eventType := notification.EventStatusUpdated
	if newStatus == request.StatusCompleted {
		eventType = notification.EventRequestCompleted
	}

	h.notify(r.Context(), eventType, req, body.Channels, notification.Payload{
		RequestTitle: req.Title,
		OldStatus:    string(oldStatus),
		NewStatus:    string(newStatus),
		Notes:        body.Notes,
	}, req.Reporter)

	WriteJSON(w, http.StatusOK, req)
}

// notify dispatches a business-event notification. The business action has
// already been persisted at this point, so even a failed mandatory in-app
// write is logged rather than turned into a request failure.
func (h *RequestHandler) notify(ctx context.Context, eventType notification.EventType, req *request.Request, channels []notification.Channel, payload notification.Payload, to request.Party) {
	event := &notification.Event{
		Type:      eventType,
		RequestID: req.ID,
		Recipient: notification.Recipient{
			ID:    to.ID,
			Name:  to.Name,
			Email: to.Email,
			Phone: to.Phone,
		},
		Channels: channels,
		Payload:  payload,
	}

	if _, err := h.dispatcher.Notify(ctx, event); err != nil {
		slog.Error("Business-event notification failed",
			"error", err,
			"eventType", eventType,
			"requestId", req.ID)
	}
}
