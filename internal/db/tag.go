package db

// Tag 定义了标签模型，通过 post_tags 与文章多对多关联。
type Tag struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug      string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	PostCount int64  `gorm:"->;-:migration" json:"postCount"`
}

// URL returns the path of the tag's post listing.
func (t Tag) URL() string {
	return "/tag/" + t.Slug + "/"
}
