package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/logging"
	"github.com/inkpress/internal/mail"
	"github.com/inkpress/web"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "blog_session"

// Options configures the engine built by SetupRouter.
type Options struct {
	SessionSecret string
	SiteBaseURL   string
	Mailer        mail.Mailer
	Logger        *zap.Logger
	Now           func() time.Time
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, opts Options) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(logging.Middleware(logger), logging.Recovery(logger))

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	// 加载内嵌模板并添加自定义函数
	tmpl, err := web.Templates(templateFuncs(opts.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	api, err := handler.NewAPI(gdb, handler.Options{
		Mailer:      opts.Mailer,
		Logger:      logger,
		SiteBaseURL: opts.SiteBaseURL,
		Now:         opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid admin configuration: %w", err)
	}

	r.NoRoute(api.NotFound)
	r.NoMethod(methodNotAllowed)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 前台路由
	r.GET("/", api.PostList)
	r.GET("/tag/:tag_slug/", api.PostList)
	r.GET("/:year/:month/:day/:slug/", api.PostDetail)
	r.GET("/posts/:id/share/", api.PostShare)
	r.POST("/posts/:id/share/", api.PostShare)
	r.POST("/posts/:id/comment/", api.PostComment)
	// GET 会命中详情路由的尾斜杠重定向，需显式拒绝
	r.GET("/posts/:id/comment/", methodNotAllowed)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/", api.ShowDashboard)
			auth.GET("/posts/", api.ShowPostChangeList)
			auth.GET("/comments/", api.ShowCommentChangeList)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/posts/:id", api.GetPost)
				apiGroup.POST("/posts", api.CreatePost)
				apiGroup.PUT("/posts/:id", api.UpdatePost)
				apiGroup.DELETE("/posts/:id", api.DeletePost)
				apiGroup.POST("/posts/:id/publish", api.PublishPost)

				apiGroup.PUT("/comments/:id/active", api.SetCommentActive)
				apiGroup.DELETE("/comments/:id", api.DeleteComment)

				apiGroup.GET("/tags", api.GetTags)
			}
		}
	}

	return r, nil
}

func methodNotAllowed(c *gin.Context) {
	if c.Writer.Header().Get("Allow") == "" {
		c.Header("Allow", http.MethodPost)
	}
	c.HTML(http.StatusMethodNotAllowed, "error.html", gin.H{
		"title":   "Method not allowed",
		"message": fmt.Sprintf("%s is not allowed here.", c.Request.Method),
	})
}
