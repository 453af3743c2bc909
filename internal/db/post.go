package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PostStatus 表示文章的发布状态，取值沿用两位编码。
type PostStatus string

const (
	StatusDraft     PostStatus = "DF"
	StatusPublished PostStatus = "PB"
)

// PostStatuses lists the statuses in display order.
var PostStatuses = []PostStatus{StatusDraft, StatusPublished}

// Label returns the human readable status name.
func (s PostStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPublished:
		return "Published"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

const publishDateLayout = "2006-01-02"

// Post 定义了文章模型。slug 只需在同一发布日期内唯一，由 (slug, publish_date) 唯一索引保证。
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:250;not null" json:"title"`
	Slug        string     `gorm:"size:250;not null;uniqueIndex:idx_posts_slug_publish_date,priority:1" json:"slug"`
	AuthorID    uint       `gorm:"not null;index" json:"authorId"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Body        string     `gorm:"type:text" json:"body"`
	Publish     time.Time  `gorm:"not null;index:idx_posts_publish,sort:desc" json:"publish"`
	PublishDate string     `gorm:"size:10;not null;uniqueIndex:idx_posts_slug_publish_date,priority:2" json:"-"`
	Created     time.Time  `gorm:"autoCreateTime" json:"created"`
	Updated     time.Time  `gorm:"autoUpdateTime" json:"updated"`
	Status      PostStatus `gorm:"size:2;not null;default:DF;index" json:"status"`
	Tags        []Tag      `gorm:"many2many:post_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tags"`
}

// BeforeSave 统一发布时间为 UTC，并同步用于唯一约束的发布日期。
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Publish.IsZero() {
		p.Publish = tx.NowFunc()
	}
	p.Publish = p.Publish.UTC()
	p.PublishDate = p.Publish.Format(publishDateLayout)
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown post status %q", p.Status)
	}
	return nil
}

func (p *Post) String() string {
	return p.Title
}

// IsPublished reports whether the post is visible on the public site.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// AbsoluteURL returns the canonical path of the post detail page.
func (p *Post) AbsoluteURL() string {
	return PostURL(p.Publish, p.Slug)
}

// PostURL builds /{year}/{month}/{day}/{slug}/ from the UTC calendar date of publish.
func PostURL(publish time.Time, slug string) string {
	t := publish.UTC()
	return fmt.Sprintf("/%d/%d/%d/%s/", t.Year(), int(t.Month()), t.Day(), url.PathEscape(strings.TrimSpace(slug)))
}

// PublishDateKey formats a calendar date the way the publish_date column stores it.
func PublishDateKey(year, month, day int) (string, bool) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return "", false
	}
	return date.Format(publishDateLayout), true
}

// PostOrdering applies the default post ordering: newest publish first.
func PostOrdering(tx *gorm.DB) *gorm.DB {
	return tx.Order("posts.publish desc").Order("posts.id desc")
}

// PublishedPosts restricts a query to published posts in default ordering.
func PublishedPosts(tx *gorm.DB) *gorm.DB {
	return tx.Where("posts.status = ?", StatusPublished).Scopes(PostOrdering)
}
