package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
)

func (s *testServer) login(t *testing.T) []*http.Cookie {
	t.Helper()
	if _, err := service.NewUserService(s.db).Create("admin", "s3cret"); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	rr := s.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/admin/" {
		t.Fatalf("expected redirect to dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}
	return cookies
}

func (s *testServer) authed(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return s.do(req)
}

func TestAdminRequiresLogin(t *testing.T) {
	s := setupTestServer(t, "")

	rr := s.get("/admin/")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = s.get("/admin/api/tags")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for api without session, got %d", rr.Code)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	s := setupTestServer(t, "")
	if _, err := service.NewUserService(s.db).Create("admin", "s3cret"); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	rr := s.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Please enter a correct username and password.") {
		t.Fatalf("expected login error message")
	}
}

func TestAdminDashboardAndLogout(t *testing.T) {
	s := setupTestServer(t, "")
	s.publish(t, "Live", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), "Go")
	cookies := s.login(t)

	rr := s.authed(http.MethodGet, "/admin/", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "1 total, 1 published, 0 drafts") || !strings.Contains(body, "Go (1)") {
		t.Fatalf("unexpected dashboard: %s", body)
	}

	rr = s.authed(http.MethodGet, "/admin/logout", "", cookies)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", rr.Code)
	}
	cleared := rr.Result().Cookies()
	rr = s.authed(http.MethodGet, "/admin/", "", cleared)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect once logged out, got %d", rr.Code)
	}
}

func TestAdminPostChangeList(t *testing.T) {
	s := setupTestServer(t, "")
	s.publish(t, "Learning Go", "channels", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	s.draft(t, "Rust notes", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	cookies := s.login(t)

	rr := s.authed(http.MethodGet, "/admin/posts/?q=go", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Learning Go") || strings.Contains(body, "Rust notes") {
		t.Fatalf("search did not narrow the list: %s", body)
	}
	if !strings.Contains(body, "1 result (2 total)") {
		t.Fatalf("expected result counter in body")
	}
	if !strings.Contains(body, "Published (1)") {
		t.Fatalf("expected status facet counts in body")
	}

	rr = s.authed(http.MethodGet, "/admin/comments/", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for comment list, got %d", rr.Code)
	}
}

func TestAdminPostAPI(t *testing.T) {
	s := setupTestServer(t, "")
	cookies := s.login(t)

	rr := s.authed(http.MethodPost, "/admin/api/posts", `{"title":"Fresh Start","body":"hello","tags":["Go","News"]}`, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Post db.Post `json:"post"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Post.Slug != "fresh-start" || created.Post.Status != db.StatusDraft || len(created.Post.Tags) != 2 {
		t.Fatalf("unexpected created post %+v", created.Post)
	}
	if created.Post.Author.Username != "admin" {
		t.Fatalf("expected session user as author, got %q", created.Post.Author.Username)
	}

	id := created.Post.ID
	rr = s.authed(http.MethodPost, fmt.Sprintf("/admin/api/posts/%d/publish", id), "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on publish, got %d", rr.Code)
	}
	rr = s.authed(http.MethodPost, fmt.Sprintf("/admin/api/posts/%d/publish", id), "", cookies)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second publish, got %d", rr.Code)
	}

	path := created.Post.AbsoluteURL()
	if rr := s.get(path); rr.Code != http.StatusOK {
		t.Fatalf("published post should be public at %s, got %d", path, rr.Code)
	}

	rr = s.authed(http.MethodPost, "/admin/api/posts", fmt.Sprintf(`{"title":"Fresh Start","publish":%q}`, created.Post.Publish.Format(time.RFC3339)), cookies)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate slug on same date, got %d", rr.Code)
	}

	rr = s.authed(http.MethodPut, fmt.Sprintf("/admin/api/posts/%d", id), `{"title":"Fresh Start","slug":"Bad Slug"}`, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid slug, got %d", rr.Code)
	}

	rr = s.authed(http.MethodDelete, fmt.Sprintf("/admin/api/posts/%d", id), "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}
	rr = s.authed(http.MethodGet, fmt.Sprintf("/admin/api/posts/%d", id), "", cookies)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestAdminCommentModeration(t *testing.T) {
	s := setupTestServer(t, "")
	post := s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	comment, err := service.NewCommentService(s.db).AddToPost(post, db.NewComment("Spammer", "s@example.com", "Buy"))
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	cookies := s.login(t)

	rr := s.authed(http.MethodPut, fmt.Sprintf("/admin/api/comments/%d/active", comment.ID), `{"active":false}`, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body := s.get("/2024/1/1/hello/").Body.String(); strings.Contains(body, "Spammer") {
		t.Fatalf("deactivated comment still shown")
	}

	rr = s.authed(http.MethodPut, fmt.Sprintf("/admin/api/comments/%d/active", comment.ID), `{}`, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without active flag, got %d", rr.Code)
	}

	rr = s.authed(http.MethodDelete, fmt.Sprintf("/admin/api/comments/%d", comment.ID), "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}
	rr = s.authed(http.MethodDelete, fmt.Sprintf("/admin/api/comments/%d", comment.ID), "", cookies)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestAdminTagsAPI(t *testing.T) {
	s := setupTestServer(t, "")
	s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), "Go")
	cookies := s.login(t)

	rr := s.authed(http.MethodGet, "/admin/api/tags", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Tags []struct {
			Name      string `json:"name"`
			Slug      string `json:"slug"`
			PostCount int64  `json:"postCount"`
		} `json:"tags"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Tags) != 1 || payload.Tags[0].Slug != "go" || payload.Tags[0].PostCount != 1 {
		t.Fatalf("unexpected tags %+v", payload.Tags)
	}
}
