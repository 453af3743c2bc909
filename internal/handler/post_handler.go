package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

type postRequest struct {
	Title    string     `json:"title" binding:"required"`
	Slug     string     `json:"slug"`
	Body     string     `json:"body"`
	AuthorID uint       `json:"authorId"`
	Publish  *time.Time `json:"publish"`
	Tags     []string   `json:"tags"`
}

func (r postRequest) input(defaultAuthor uint) service.PostInput {
	author := r.AuthorID
	if author == 0 {
		author = defaultAuthor
	}
	return service.PostInput{
		Title:    r.Title,
		Slug:     r.Slug,
		Body:     r.Body,
		AuthorID: author,
		Publish:  r.Publish,
		Tags:     r.Tags,
	}
}

// GetPost 获取单篇文章，包括草稿
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		a.writePostError(c, err, "failed to load post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// CreatePost 创建草稿文章，未指定作者时使用当前登录用户
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "title is required") {
		return
	}

	post, err := a.posts.Create(req.input(currentUserID(c)))
	if err != nil {
		a.writePostError(c, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": post})
}

// UpdatePost 更新文章内容与标签
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	var req postRequest
	if !bindJSON(c, &req, "title is required") {
		return
	}

	post, err := a.posts.Update(id, req.input(currentUserID(c)))
	if err != nil {
		a.writePostError(c, err, "failed to update post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated", "post": post})
}

// PublishPost 将草稿发布
func (a *API) PublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := a.posts.Publish(id)
	if err != nil {
		a.writePostError(c, err, "failed to publish post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post published", "post": post})
}

// DeletePost 删除文章
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := a.posts.Delete(id); err != nil {
		a.writePostError(c, err, "failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (a *API) writePostError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusConflict, service.ErrSlugTaken.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidPostInput),
		errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrAuthorNotFound),
		errors.Is(err, service.ErrTagInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
