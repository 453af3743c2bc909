package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/admin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/mail"
	"github.com/inkpress/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const siteName = "My Blog"

// Options carries the dependencies that are not derived from the database.
type Options struct {
	Mailer      mail.Mailer
	Logger      *zap.Logger
	SiteBaseURL string
	Now         func() time.Time
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	posts        *service.PostService
	comments     *service.CommentService
	tags         *service.TagService
	users        *service.UserService
	shares       *service.ShareService
	postAdmin    *admin.ModelAdmin[db.Post]
	commentAdmin *admin.ModelAdmin[db.Comment]
	logger       *zap.Logger
	siteBaseURL  string
	now          func() time.Time
}

// NewAPI constructs a handler set with shared services. It fails when an admin
// registration is inconsistent.
func NewAPI(gdb *gorm.DB, opts Options) (*API, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.NewConsoleMailer(logger, "webmaster@localhost")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	postAdmin := admin.PostAdmin()
	if err := postAdmin.Validate(); err != nil {
		return nil, err
	}
	commentAdmin := admin.CommentAdmin()
	if err := commentAdmin.Validate(); err != nil {
		return nil, err
	}

	return &API{
		db:           gdb,
		posts:        service.NewPostService(gdb),
		comments:     service.NewCommentService(gdb),
		tags:         service.NewTagService(gdb),
		users:        service.NewUserService(gdb),
		shares:       service.NewShareService(mailer),
		postAdmin:    postAdmin,
		commentAdmin: commentAdmin,
		logger:       logger,
		siteBaseURL:  strings.TrimRight(strings.TrimSpace(opts.SiteBaseURL), "/"),
		now:          now,
	}, nil
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = siteName
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = a.now().Year()
	}
	c.HTML(status, template, payload)
}

// NotFound renders the 404 page.
func (a *API) NotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "error.html", gin.H{
		"title":   "Page not found",
		"message": "The page you requested does not exist.",
	})
}

// serverError logs err and renders the 500 page.
func (a *API) serverError(c *gin.Context, err error) {
	c.Error(err)
	a.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
		"title":   "Server error",
		"message": "Something went wrong. Please try again later.",
	})
}
