package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
	"go.uber.org/zap"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "admin_login.html", gin.H{
		"title": "Log in",
	})
}

// Login 校验用户名密码并写入会话
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.users.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			a.renderHTML(c, http.StatusUnauthorized, "admin_login.html", gin.H{
				"title":     "Log in",
				"loginName": strings.TrimSpace(username),
				"error":     "Please enter a correct username and password.",
			})
			return
		}
		a.serverError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		a.serverError(c, err)
		return
	}

	a.logger.Info("admin login", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/admin/")
}

// Logout 清理会话并回到登录页
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	counts, err := a.posts.Counts()
	if err != nil {
		a.serverError(c, err)
		return
	}
	commentTotal, err := a.comments.Count(false)
	if err != nil {
		a.serverError(c, err)
		return
	}
	commentActive, err := a.comments.Count(true)
	if err != nil {
		a.serverError(c, err)
		return
	}
	tags, err := a.tags.List()
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"title":         "Site administration",
		"username":      sessions.Default(c).Get(sessionUsernameKey),
		"postCounts":    counts,
		"commentTotal":  commentTotal,
		"commentActive": commentActive,
		"tags":          tags,
	})
}

// ShowPostChangeList 渲染文章列表页
func (a *API) ShowPostChangeList(c *gin.Context) {
	cl, err := a.postAdmin.ChangeList(a.db, c.Request.URL.Path, c.Request.URL.Query(), a.now())
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "admin_changelist.html", gin.H{
		"title":    "Select post to change",
		"username": sessions.Default(c).Get(sessionUsernameKey),
		"list":     cl,
	})
}

// ShowCommentChangeList 渲染评论列表页
func (a *API) ShowCommentChangeList(c *gin.Context) {
	cl, err := a.commentAdmin.ChangeList(a.db, c.Request.URL.Path, c.Request.URL.Query(), a.now())
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderHTML(c, http.StatusOK, "admin_changelist.html", gin.H{
		"title":    "Select comment to change",
		"username": sessions.Default(c).Get(sessionUsernameKey),
		"list":     cl,
	})
}

// AuthRequired 是一个简单的认证中间件；API 请求返回 401，页面请求跳转登录
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api") {
				respondError(c, http.StatusUnauthorized, "authentication required")
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	if id, ok := sessions.Default(c).Get(sessionUserIDKey).(uint); ok {
		return id
	}
	return 0
}
