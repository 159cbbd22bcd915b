package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"go.propserve.dev/internal/notification"
	"go.propserve.dev/internal/request"
	"go.propserve.dev/internal/scanner"
	"go.propserve.dev/internal/sla"
)

func seedInApp(t *testing.T, repo *fakeNotificationRepo, recipientID string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := repo.InsertInApp(context.Background(), &notification.InApp{
			RecipientID: recipientID,
			Title:       fmt.Sprintf("Notification %d", i),
			Severity:    notification.SeverityInfo,
		})
		if err != nil {
			t.Fatalf("Failed to seed notification: %v", err)
		}
	}
}

func newNotificationRouter(repo *fakeNotificationRepo) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api/notifications", NewNotificationHandler(repo).Routes())
	return r
}

func TestListNotifications(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedInApp(t, repo, "tenant-1", 3)
	seedInApp(t, repo, "tenant-2", 1)
	router := newNotificationRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?recipientId=tenant-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PagedResponse[*notification.InApp]
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Data) != 3 {
		t.Errorf("Expected 3 notifications for tenant-1, got %d", len(resp.Data))
	}
	if resp.Unread != 3 {
		t.Errorf("Expected 3 unread, got %d", resp.Unread)
	}
	if resp.Page != 1 || resp.PageSize != 20 {
		t.Errorf("Expected default paging 1/20, got %d/%d", resp.Page, resp.PageSize)
	}
}

func TestListNotifications_Paging(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedInApp(t, repo, "tenant-1", 5)
	router := newNotificationRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?recipientId=tenant-1&page=2&pageSize=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp PagedResponse[*notification.InApp]
	json.NewDecoder(w.Body).Decode(&resp)

	if len(resp.Data) != 2 {
		t.Errorf("Expected 2 notifications on page 2, got %d", len(resp.Data))
	}
	if resp.Page != 2 || resp.PageSize != 2 {
		t.Errorf("Expected paging 2/2, got %d/%d", resp.Page, resp.PageSize)
	}
}

func TestListNotifications_MissingRecipient(t *testing.T) {
	router := newNotificationRouter(newFakeNotificationRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	seedInApp(t, repo, "tenant-1", 1)
	router := newNotificationRouter(repo)

	id := repo.inApp[0].ID
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+id+"/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if !repo.inApp[0].Read {
		t.Error("Expected notification marked read")
	}

	unread, _ := repo.CountUnread(context.Background(), "tenant-1")
	if unread != 0 {
		t.Errorf("Expected 0 unread after read, got %d", unread)
	}
}

func TestMarkNotificationRead_NotFound(t *testing.T) {
	router := newNotificationRouter(newFakeNotificationRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/inapp-missing/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestTriggerScan(t *testing.T) {
	requests := newFakeRequestRepo()
	now := time.Now()
	requests.Insert(context.Background(), &request.Request{
		ID:          "req-overdue",
		Title:       "Burst pipe",
		Priority:    sla.PriorityHigh,
		Status:      request.StatusOpen,
		Reporter:    request.Party{ID: "tenant-1"},
		AcceptDue:   now.Add(-time.Hour),
		ArriveDue:   now.Add(time.Hour),
		CompleteDue: now.Add(8 * time.Hour),
		CreatedAt:   now.Add(-2 * time.Hour),
	})
	notifications := newFakeNotificationRepo()
	dispatcher := notification.NewDispatcher(notifications, notification.NewInAppSender(notifications))

	cfg := scanner.DefaultConfig()
	cfg.AlertChannels = nil
	scan := scanner.New(requests, notifications, dispatcher, cfg)

	r := chi.NewRouter()
	r.Post("/api/scan", NewScanHandler(scan).Trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result scanner.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode scan result: %v", err)
	}

	if result.Violations != 1 {
		t.Errorf("Expected 1 violation, got %d", result.Violations)
	}
	if len(notifications.inApp) != 1 {
		t.Errorf("Expected 1 in-app alert, got %d", len(notifications.inApp))
	}
}
