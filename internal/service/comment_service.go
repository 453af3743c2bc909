package service

import (
	"errors"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentUnbound  = errors.New("comment is not attached to a post")
)

// CommentService wraps comment related database operations.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// ListActive returns the moderated-in comments of a post, oldest first.
func (s *CommentService) ListActive(postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.Scopes(db.ActiveComments).Where("comments.post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// AddToPost attaches comment to post and persists it. Whatever post the comment
// carried before is overwritten.
func (s *CommentService) AddToPost(post *db.Post, comment db.Comment) (*db.Comment, error) {
	if post == nil || post.ID == 0 {
		return nil, ErrCommentUnbound
	}
	comment.ID = 0
	comment.PostID = post.ID
	comment.Post = db.Post{}

	if err := s.db.Omit("Post").Create(&comment).Error; err != nil {
		return nil, err
	}
	comment.Post = *post
	return &comment, nil
}

// SetActive toggles moderation state of a comment.
func (s *CommentService) SetActive(id uint, active bool) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	comment.Active = active
	if err := s.db.Omit("Post").Save(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment by id.
func (s *CommentService) Delete(id uint) error {
	result := s.db.Delete(&db.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Count returns the number of comments, optionally only active ones.
func (s *CommentService) Count(activeOnly bool) (int64, error) {
	var count int64
	query := s.db.Model(&db.Comment{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
