package admin

import (
	"github.com/inkpress/internal/db"
)

const listTimeLayout = "Jan. 2, 2006, 15:04"

// PostAdmin returns the change list configuration of posts.
func PostAdmin() *ModelAdmin[db.Post] {
	statusChoices := make([]Choice, 0, len(db.PostStatuses))
	for _, status := range db.PostStatuses {
		statusChoices = append(statusChoices, Choice{Value: string(status), Label: status.Label()})
	}

	return &ModelAdmin[db.Post]{
		Name:  "posts",
		Title: "Posts",
		Columns: []Column[db.Post]{
			{Name: "title", Label: "Title", Order: "posts.title", Value: func(p *db.Post) string { return p.Title }},
			{Name: "slug", Label: "Slug", Order: "posts.slug", Value: func(p *db.Post) string { return p.Slug }},
			{Name: "author", Label: "Author", Order: "posts.author_id", Value: func(p *db.Post) string { return p.Author.Username }},
			{Name: "publish", Label: "Publish", Order: "posts.publish", Value: func(p *db.Post) string { return p.Publish.UTC().Format(listTimeLayout) }},
			{Name: "status", Label: "Status", Order: "posts.status", Value: func(p *db.Post) string { return p.Status.Label() }},
		},
		Filters: []Filter{
			{Name: "status", Label: "Status", Column: "posts.status", Kind: ChoiceFilter, Choices: statusChoices},
			{Name: "created", Label: "Created", Column: "posts.created", Kind: DateFilter},
			{Name: "publish", Label: "Publish", Column: "posts.publish", Kind: DateFilter},
			{Name: "author", Label: "Author", Column: "posts.author_id", Kind: RelatedFilter,
				Related: &Related{Table: "users", Key: "id", Label: "username"}},
		},
		SearchFields:  []string{"posts.title", "posts.body"},
		Ordering:      []string{"status", "publish"},
		DateHierarchy: "posts.publish",
		ShowFacets:    true,
		Preloads:      []string{"Author"},
		Key:           func(p *db.Post) uint { return p.ID },
	}
}

// CommentAdmin returns the change list configuration of comments.
func CommentAdmin() *ModelAdmin[db.Comment] {
	return &ModelAdmin[db.Comment]{
		Name:  "comments",
		Title: "Comments",
		Columns: []Column[db.Comment]{
			{Name: "post", Label: "Post", Order: "comments.post_id", Value: func(c *db.Comment) string { return c.Post.Title }},
			{Name: "name", Label: "Name", Order: "comments.name", Value: func(c *db.Comment) string { return c.Name }},
			{Name: "email", Label: "Email", Order: "comments.email", Value: func(c *db.Comment) string { return c.Email }},
			{Name: "created", Label: "Created", Order: "comments.created", Value: func(c *db.Comment) string { return c.Created.UTC().Format(listTimeLayout) }},
			{Name: "active", Label: "Active", Order: "comments.active", Value: func(c *db.Comment) string {
				if c.Active {
					return "Yes"
				}
				return "No"
			}},
		},
		Filters: []Filter{
			{Name: "active", Label: "Active", Column: "comments.active", Kind: BoolFilter},
			{Name: "created", Label: "Created", Column: "comments.created", Kind: DateFilter},
			{Name: "updated", Label: "Updated", Column: "comments.updated", Kind: DateFilter},
		},
		SearchFields:  []string{"comments.name", "comments.email", "comments.body"},
		Ordering:      []string{"active", "created"},
		DateHierarchy: "comments.created",
		ShowFacets:    true,
		Preloads:      []string{"Post"},
		Key:           func(c *db.Comment) uint { return c.ID },
	}
}
