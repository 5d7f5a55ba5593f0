package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"promise_backend/internal/notification/inapp"
	"promise_backend/platform/apperr"
	"promise_backend/platform/httpkit"
	"promise_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeFeed struct {
	page, pageSize int
	marked         uuid.UUID
}

func (f *fakeFeed) List(_ context.Context, _ uuid.UUID, page, pageSize int) ([]inapp.Notification, int, error) {
	f.page, f.pageSize = page, pageSize
	return []inapp.Notification{}, 0, nil
}
func (f *fakeFeed) CountUnread(context.Context, uuid.UUID) (int, error) { return 3, nil }
func (f *fakeFeed) MarkRead(_ context.Context, _, id uuid.UUID) error {
	f.marked = id
	return nil
}
func (f *fakeFeed) MarkAllRead(context.Context, uuid.UUID) error { return nil }
func (f *fakeFeed) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return apperr.NotFound("notification not found")
}

func newFeedEngine(feed Feed) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) { c.Set(httpkit.ContextUserIDKey, uuid.New()) })
	NewHTTPHandler(feed, validator.New()).RegisterRoutes(engine.Group("/notifications"))
	return engine
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestListDefaultsAndValidatesPaging(t *testing.T) {
	feed := &fakeFeed{}
	engine := newFeedEngine(feed)

	if rec := serve(engine, http.MethodGet, "/notifications"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if feed.page != 1 || feed.pageSize != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", feed.page, feed.pageSize)
	}
	if rec := serve(engine, http.MethodGet, "/notifications?limit=500"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestMarkReadAndDelete(t *testing.T) {
	feed := &fakeFeed{}
	engine := newFeedEngine(feed)
	id := uuid.New()

	if rec := serve(engine, http.MethodPatch, "/notifications/"+id.String()+"/read"); rec.Code != http.StatusOK || feed.marked != id {
		t.Fatalf("mark read: %d %s", rec.Code, feed.marked)
	}
	if rec := serve(engine, http.MethodPatch, "/notifications/nope/read"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := serve(engine, http.MethodDelete, "/notifications/"+id.String()); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
