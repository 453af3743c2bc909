package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/mail"
	"github.com/inkpress/internal/router"
	"github.com/inkpress/internal/service"
	"gorm.io/gorm"
)

var ginOnce sync.Once

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	mailer *fakeMailer
	author db.User
}

func setupTestServer(t *testing.T, siteBaseURL string) *testServer {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	gdb, err := db.Open(db.MemoryDSN(fmt.Sprintf("handler-%d", time.Now().UnixNano())), db.Silent())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	author := db.User{Username: "tester", Password: "hashed"}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	mailer := &fakeMailer{}
	engine, err := router.SetupRouter(gdb, router.Options{
		SessionSecret: "test-secret",
		SiteBaseURL:   siteBaseURL,
		Mailer:        mailer,
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return &testServer{engine: engine, db: gdb, mailer: mailer, author: author}
}

func (s *testServer) publish(t *testing.T, title, body string, publish time.Time, tags ...string) *db.Post {
	t.Helper()
	posts := service.NewPostService(s.db)
	post, err := posts.Create(service.PostInput{Title: title, Body: body, AuthorID: s.author.ID, Publish: &publish, Tags: tags})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	published, err := posts.Publish(post.ID)
	if err != nil {
		t.Fatalf("publish %q: %v", title, err)
	}
	return published
}

func (s *testServer) draft(t *testing.T, title string, publish time.Time) *db.Post {
	t.Helper()
	post, err := service.NewPostService(s.db).Create(service.PostInput{Title: title, AuthorID: s.author.ID, Publish: &publish})
	if err != nil {
		t.Fatalf("create draft %q: %v", title, err)
	}
	return post
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func TestPostListPaginatesPublishedPosts(t *testing.T) {
	s := setupTestServer(t, "")

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		s.publish(t, fmt.Sprintf("Entry %c", 'A'+i-1), "body", base.AddDate(0, 0, i))
	}
	s.draft(t, "Unfinished thoughts", base.AddDate(0, 1, 0))

	tests := []struct {
		query    string
		wantPage string
		want     []string
		notWant  []string
	}{
		{query: "", wantPage: "Page 1 of 3.", want: []string{"Entry G", "Entry F", "Entry E"}, notWant: []string{"Entry D"}},
		{query: "?page=2", wantPage: "Page 2 of 3.", want: []string{"Entry D", "Entry C", "Entry B"}, notWant: []string{"Entry E", "Entry A"}},
		{query: "?page=abc", wantPage: "Page 1 of 3.", want: []string{"Entry G"}},
		{query: "?page=9999", wantPage: "Page 3 of 3.", want: []string{"Entry A"}, notWant: []string{"Entry B"}},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			rr := s.get("/" + tt.query)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, tt.wantPage) {
				t.Fatalf("expected %q in body", tt.wantPage)
			}
			for _, title := range tt.want {
				if !strings.Contains(body, title) {
					t.Fatalf("expected %q on page", title)
				}
			}
			for _, title := range tt.notWant {
				if strings.Contains(body, title) {
					t.Fatalf("did not expect %q on page", title)
				}
			}
			if strings.Contains(body, "Unfinished thoughts") {
				t.Fatalf("drafts must not be listed")
			}
		})
	}
}

func TestPostListEmptyHasOnePage(t *testing.T) {
	s := setupTestServer(t, "")

	rr := s.get("/?page=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Page 1 of 1.") {
		t.Fatalf("expected a single empty page, got %s", rr.Body.String())
	}
}

func TestPostListByTag(t *testing.T) {
	s := setupTestServer(t, "")

	base := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	s.publish(t, "Gophers", "body", base, "Go")
	s.publish(t, "Crabs", "body", base.AddDate(0, 0, 1), "Rust")

	rr := s.get("/tag/go/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Gophers") || strings.Contains(body, "Crabs") {
		t.Fatalf("tag listing shows wrong posts: %s", body)
	}
	if !strings.Contains(body, `Posts tagged with "Go"`) {
		t.Fatalf("expected tag heading in body")
	}

	if rr := s.get("/tag/missing/"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tag, got %d", rr.Code)
	}
}

func TestPostDetail(t *testing.T) {
	s := setupTestServer(t, "")

	post := s.publish(t, "Hello", "Some **bold** text", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	s.draft(t, "Hidden", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	comments := service.NewCommentService(s.db)
	if _, err := comments.AddToPost(post, db.NewComment("Visible Reader", "v@example.com", "Nice")); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	hidden, err := comments.AddToPost(post, db.NewComment("Spammer", "s@example.com", "Buy"))
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := comments.SetActive(hidden.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rr := s.get("/2024/1/1/hello/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Fatalf("expected markdown rendered body, got %s", body)
	}
	if !strings.Contains(body, "Visible Reader") || strings.Contains(body, "Spammer") {
		t.Fatalf("only active comments should be shown")
	}
	if !strings.Contains(body, "1 comment<") {
		t.Fatalf("expected active comment count")
	}

	notFound := []string{
		"/2024/1/1/hidden/",
		"/2024/1/2/hello/",
		"/2024/13/1/hello/",
		"/2024/x/1/hello/",
		"/2024/1/1/missing/",
	}
	for _, path := range notFound {
		if rr := s.get(path); rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, rr.Code)
		}
	}
}

func TestPostShare(t *testing.T) {
	s := setupTestServer(t, "")
	post := s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	path := fmt.Sprintf("/posts/%d/share/", post.ID)

	rr := s.get(path)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Send e-mail") {
		t.Fatalf("expected empty share form, got %d", rr.Code)
	}

	rr = s.postForm(path, url.Values{"name": {"Ann"}, "email": {"not-an-email"}, "to": {"bob@x.io"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for invalid form, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Enter a valid email address.") {
		t.Fatalf("expected email error in body")
	}
	if len(s.mailer.messages()) != 0 {
		t.Fatalf("invalid form must not send mail")
	}

	rr = s.postForm(path, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "to": {"bob@x.io"}, "comments": {"Great read"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "E-mail successfully sent") {
		t.Fatalf("expected confirmation in body")
	}

	sent := s.mailer.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sent))
	}
	if sent[0].Subject != "Ann (ann@x.io) recommends you read Hello" {
		t.Fatalf("unexpected subject %q", sent[0].Subject)
	}
	if !strings.Contains(sent[0].Body, "http://example.com/2024/1/1/hello/") {
		t.Fatalf("expected absolute post URL in body, got %q", sent[0].Body)
	}
	if !strings.Contains(sent[0].Body, "Ann's comments: Great read") {
		t.Fatalf("expected comments in body, got %q", sent[0].Body)
	}
}

func TestPostShareUsesSiteBaseURL(t *testing.T) {
	s := setupTestServer(t, "https://blog.example.org/")
	post := s.publish(t, "Hello", "body", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	rr := s.postForm(fmt.Sprintf("/posts/%d/share/", post.ID), url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "to": {"bob@x.io"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	sent := s.mailer.messages()
	if len(sent) != 1 || !strings.Contains(sent[0].Body, "https://blog.example.org/2024/3/5/hello/") {
		t.Fatalf("expected configured base URL in message, got %+v", sent)
	}
}

func TestPostShareMailerFailure(t *testing.T) {
	s := setupTestServer(t, "")
	s.mailer.err = fmt.Errorf("connection refused")
	post := s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	rr := s.postForm(fmt.Sprintf("/posts/%d/share/", post.ID), url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "to": {"bob@x.io"}})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when delivery fails, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "E-mail successfully sent") {
		t.Fatalf("failed delivery must not be reported as sent")
	}
}

func TestPostShareUnknownOrDraft(t *testing.T) {
	s := setupTestServer(t, "")
	draft := s.draft(t, "Secret", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	for _, path := range []string{fmt.Sprintf("/posts/%d/share/", draft.ID), "/posts/999/share/", "/posts/abc/share/"} {
		if rr := s.get(path); rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, rr.Code)
		}
	}
}

func TestPostComment(t *testing.T) {
	s := setupTestServer(t, "")
	post := s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	path := fmt.Sprintf("/posts/%d/comment/", post.ID)

	rr := s.postForm(path, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "body": {"Nice post"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Your comment has been added.") {
		t.Fatalf("expected confirmation in body")
	}

	var stored []db.Comment
	if err := s.db.Find(&stored).Error; err != nil {
		t.Fatalf("load comments: %v", err)
	}
	if len(stored) != 1 || stored[0].PostID != post.ID || !stored[0].Active {
		t.Fatalf("unexpected stored comments %+v", stored)
	}

	rr = s.postForm(path, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "body": {"   "}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for invalid form, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "This field is required.") {
		t.Fatalf("expected required error in body")
	}
	rr = s.postForm(path, url.Values{"name": {""}, "email": {"ann@x.io"}, "body": {"Nice post"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing name, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "This field is required.") || strings.Contains(body, "Your comment has been added.") {
		t.Fatalf("expected name error without confirmation")
	}

	var count int64
	s.db.Model(&db.Comment{}).Count(&count)
	if count != 1 {
		t.Fatalf("invalid comment must not be stored, have %d", count)
	}
}

func TestPostCommentIgnoresPostFromInput(t *testing.T) {
	s := setupTestServer(t, "")
	target := s.publish(t, "Target", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	other := s.publish(t, "Other", "body", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	rr := s.postForm(fmt.Sprintf("/posts/%d/comment/", target.ID), url.Values{
		"name":    {"Eve"},
		"email":   {"eve@x.io"},
		"body":    {"hello"},
		"post":    {fmt.Sprint(other.ID)},
		"post_id": {fmt.Sprint(other.ID)},
		"postId":  {fmt.Sprint(other.ID)},
		"active":  {"false"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var stored []db.Comment
	if err := s.db.Find(&stored).Error; err != nil {
		t.Fatalf("load comments: %v", err)
	}
	if len(stored) != 1 || stored[0].PostID != target.ID || !stored[0].Active {
		t.Fatalf("comment must be bound to the post in the URL, got %+v", stored)
	}
}

func TestPostCommentRejectsGetAndDrafts(t *testing.T) {
	s := setupTestServer(t, "")
	post := s.publish(t, "Hello", "body", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	draft := s.draft(t, "Secret", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	if rr := s.get(fmt.Sprintf("/posts/%d/comment/", post.ID)); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rr.Code)
	}

	rr := s.postForm(fmt.Sprintf("/posts/%d/comment/", draft.ID), url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "body": {"hi"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for draft post, got %d", rr.Code)
	}
}
