package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/form"
	"github.com/inkpress/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// PostList renders published posts, optionally narrowed to the tag in the URL.
func (a *API) PostList(c *gin.Context) {
	var tag *db.Tag
	if slug := c.Param("tag_slug"); slug != "" {
		resolved, err := a.tags.ResolveSlug(slug)
		if err != nil {
			if errors.Is(err, service.ErrTagNotFound) {
				a.NotFound(c)
				return
			}
			a.serverError(c, err)
			return
		}
		tag = resolved
	}

	page, err := a.posts.ListPublished(tag, c.Query("page"))
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "post_list.html", gin.H{
		"title": siteName,
		"posts": page,
		"tag":   tag,
	})
}

// PostDetail renders one published post addressed by its publish date and slug.
func (a *API) PostDetail(c *gin.Context) {
	year, okYear := parseIntParam(c, "year")
	month, okMonth := parseIntParam(c, "month")
	day, okDay := parseIntParam(c, "day")
	if !okYear || !okMonth || !okDay {
		a.NotFound(c)
		return
	}

	post, err := a.posts.GetPublishedByDate(year, month, day, c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.NotFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	comments, err := a.comments.ListActive(post.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}

	body, err := renderMarkdown(post.Body)
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "post_detail.html", gin.H{
		"title":       post.Title,
		"post":        post,
		"body":        body,
		"readingTime": service.ReadingTime(post.Body),
		"comments":    comments,
		"form":        form.Comment{},
		"errors":      form.Errors{},
	})
}

// PostShare shows the share form and emails the recommendation on a valid POST.
func (a *API) PostShare(c *gin.Context) {
	post, ok := a.publishedPostByID(c)
	if !ok {
		return
	}

	var (
		f    form.EmailPost
		errs = form.Errors{}
		sent bool
	)

	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBind(&f); err != nil {
			c.Error(err)
		}
		errs = f.Validate()
		if len(errs) == 0 {
			postURL := a.absoluteURL(c, post.AbsoluteURL())
			if err := a.shares.Share(c.Request.Context(), post, f, postURL); err != nil {
				a.serverError(c, err)
				return
			}
			a.logger.Info("post shared", zap.Uint("post_id", post.ID), zap.String("to", f.To))
			sent = true
		}
	}

	a.renderHTML(c, http.StatusOK, "post_share.html", gin.H{
		"title":  "Share " + post.Title,
		"post":   post,
		"form":   f,
		"errors": errs,
		"sent":   sent,
	})
}

// PostComment stores a comment on a published post.
func (a *API) PostComment(c *gin.Context) {
	post, ok := a.publishedPostByID(c)
	if !ok {
		return
	}

	var f form.Comment
	if err := c.ShouldBind(&f); err != nil {
		c.Error(err)
	}

	var comment *db.Comment
	errs := f.Validate()
	if len(errs) == 0 {
		saved, err := a.comments.AddToPost(post, f.Comment())
		if err != nil {
			a.serverError(c, err)
			return
		}
		comment = saved
	}

	a.renderHTML(c, http.StatusOK, "post_comment.html", gin.H{
		"title":   "Add a comment",
		"post":    post,
		"form":    f,
		"errors":  errs,
		"comment": comment,
	})
}

func (a *API) publishedPostByID(c *gin.Context) (*db.Post, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.NotFound(c)
		return nil, false
	}

	post, err := a.posts.GetPublished(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.NotFound(c)
			return nil, false
		}
		a.serverError(c, err)
		return nil, false
	}
	return post, true
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
