package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Comment 定义了读者评论。删除文章时评论随之级联删除。
type Comment struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	PostID  uint      `gorm:"not null;index" json:"postId"`
	Post    Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name    string    `gorm:"size:80;not null" json:"name"`
	Email   string    `gorm:"size:254;not null" json:"email"`
	Body    string    `gorm:"type:text;not null" json:"body"`
	Created time.Time `gorm:"autoCreateTime;index:idx_comments_created,sort:desc" json:"created"`
	Updated time.Time `gorm:"autoUpdateTime" json:"updated"`
	Active  bool      `gorm:"not null;index" json:"active"`
}

// NewComment returns an active comment that is not yet attached to any post.
func NewComment(name, email, body string) Comment {
	return Comment{Name: name, Email: email, Body: body, Active: true}
}

func (c *Comment) String() string {
	if c.Post.ID != 0 {
		return fmt.Sprintf("Comment by %s on %s", c.Name, c.Post.Title)
	}
	return fmt.Sprintf("Comment by %s", c.Name)
}

// CommentOrdering applies the default comment ordering: oldest first.
func CommentOrdering(tx *gorm.DB) *gorm.DB {
	return tx.Order("comments.created asc").Order("comments.id asc")
}

// ActiveComments restricts a query to comments that passed moderation.
func ActiveComments(tx *gorm.DB) *gorm.DB {
	return tx.Where("comments.active = ?", true).Scopes(CommentOrdering)
}
