package service

import (
	"errors"
	"strings"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagInvalid  = errors.New("tag name has no usable characters")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// ResolveSlug looks a tag up by slug.
func (s *TagService) ResolveSlug(slug string) (*db.Tag, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrTagNotFound
	}

	var tag db.Tag
	if err := s.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// List returns every tag with the number of posts carrying it, ordered by name.
func (s *TagService) List() ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.
		Model(&db.Tag{}).
		Select("tags.*, COUNT(post_tags.post_id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id").
		Order("tags.name asc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Ensure returns the tags named in names, creating the missing ones.
func (s *TagService) Ensure(names []string) ([]db.Tag, error) {
	var tags []db.Tag
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		tags, err = s.ensureNames(tx, names)
		return err
	})
	return tags, err
}

func (s *TagService) ensureNames(tx *gorm.DB, names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			return nil, ErrTagInvalid
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&db.Tag{Name: name, Slug: slug}).Error; err != nil {
			return nil, err
		}

		var tag db.Tag
		if err := tx.Where("slug = ?", slug).First(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, nil
}
