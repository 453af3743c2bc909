package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

type commentActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetCommentActive 审核评论：启用或隐藏
func (a *API) SetCommentActive(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req commentActiveRequest
	if !bindJSON(c, &req, "active is required") {
		return
	}

	comment, err := a.comments.SetActive(id, *req.Active)
	if err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to update comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated", "comment": comment})
}

// DeleteComment 删除评论
func (a *API) DeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := a.comments.Delete(id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
