package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTags 获取标签列表及其文章数
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.tags.List()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}

	response := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		response = append(response, gin.H{
			"id":        tag.ID,
			"name":      tag.Name,
			"slug":      tag.Slug,
			"postCount": tag.PostCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"tags": response})
}
