package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrSlugTaken         = errors.New("slug already used for this publish date")
	ErrInvalidTransition = errors.New("post status transition is not allowed")
	ErrInvalidPostInput  = errors.New("post is missing required fields")
	ErrAuthorNotFound    = errors.New("author not found")
	ErrInvalidSlug       = errors.New("slug may only contain lowercase letters, digits, hyphens and underscores")
)

// PostService wraps post related database operations.
type PostService struct {
	db   *gorm.DB
	tags *TagService
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title    string
	Slug     string
	Body     string
	AuthorID uint
	Publish  *time.Time
	Tags     []string
}

// PostCounts aggregates status counters for the admin dashboard.
type PostCounts struct {
	Total     int64
	Published int64
	Draft     int64
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, tags: NewTagService(gdb)}
}

// ListPublished returns one page of published posts, narrowed to tag when it is non-nil.
func (s *PostService) ListPublished(tag *db.Tag, rawPage string) (*Page[db.Post], error) {
	query := s.db.Model(&db.Post{}).Scopes(db.PublishedPosts)
	if tag != nil {
		query = query.Where("posts.id IN (?)",
			s.db.Table("post_tags").Select("post_id").Where("tag_id = ?", tag.ID))
	}
	return Paginate[db.Post](query, rawPage, PostsPerPage, "Tags", "Author")
}

// Get fetches a post of any status by id with tags and author preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Tags").Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublished fetches a published post by id.
func (s *PostService) GetPublished(id uint) (*db.Post, error) {
	var post db.Post
	err := s.db.Preload("Tags").Preload("Author").
		Where("posts.status = ?", db.StatusPublished).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedByDate fetches the published post with slug published on the given UTC date.
func (s *PostService) GetPublishedByDate(year, month, day int, slug string) (*db.Post, error) {
	dateKey, ok := db.PublishDateKey(year, month, day)
	if !ok {
		return nil, ErrPostNotFound
	}

	var post db.Post
	err := s.db.Preload("Tags").Preload("Author").
		Where("posts.status = ? AND posts.slug = ? AND posts.publish_date = ?", db.StatusPublished, slug, dateKey).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create persists a draft post and associates tags in a transaction.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	post := db.Post{Status: db.StatusDraft}
	if err := s.apply(&post, input); err != nil {
		return nil, err
	}
	return s.saveWithTags(&post, input.Tags)
}

// Update applies updates to an existing post. The status is left untouched.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if err := s.apply(&existing, input); err != nil {
		return nil, err
	}
	return s.saveWithTags(&existing, input.Tags)
}

// Publish moves a draft to published. Publishing is one-way; a published post is rejected.
func (s *PostService) Publish(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.IsPublished() {
		return nil, ErrInvalidTransition
	}

	post.Status = db.StatusPublished
	if err := s.db.Save(&post).Error; err != nil {
		return nil, translatePostError(err)
	}
	return s.Get(post.ID)
}

// Delete removes a post by id; its comments and tag links go with it.
func (s *PostService) Delete(id uint) error {
	result := s.db.Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Counts returns post counters by status.
func (s *PostService) Counts() (PostCounts, error) {
	var counts PostCounts
	if err := s.db.Model(&db.Post{}).Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	if err := s.db.Model(&db.Post{}).Where("status = ?", db.StatusPublished).Count(&counts.Published).Error; err != nil {
		return counts, err
	}
	counts.Draft = counts.Total - counts.Published
	return counts, nil
}

func (s *PostService) apply(post *db.Post, input PostInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.AuthorID == 0 {
		return ErrInvalidPostInput
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if !ValidSlug(slug) {
		return ErrInvalidSlug
	}

	var author db.User
	if err := s.db.Select("id").First(&author, input.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthorNotFound
		}
		return err
	}

	post.Title = title
	post.Slug = slug
	post.Body = input.Body
	post.AuthorID = input.AuthorID
	if input.Publish != nil && !input.Publish.IsZero() {
		post.Publish = *input.Publish
	}
	return nil
}

func (s *PostService) saveWithTags(post *db.Post, tagNames []string) (*db.Post, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Save(post).Error; err != nil {
			return translatePostError(err)
		}

		tags, err := s.tags.ensureNames(tx, tagNames)
		if err != nil {
			return err
		}

		return tx.Model(post).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(post.ID)
}

func translatePostError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrSlugTaken, err)
	}
	return err
}

// ReadingTime estimates minutes needed to read body at 400 characters a minute.
func ReadingTime(body string) int {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return 0
	}

	runes := []rune(trimmed)
	minutes := len(runes) / 400
	if len(runes)%400 != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
