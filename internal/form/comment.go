package form

import (
	"strings"

	"github.com/inkpress/internal/db"
)

// Comment is the public comment form. The target post is never part of the input;
// callers attach the validated comment to a post themselves.
type Comment struct {
	Name  string `form:"name" validate:"required,max=80"`
	Email string `form:"email" validate:"required,email,max=254"`
	Body  string `form:"body" validate:"required"`
}

// Validate trims every field and checks all constraints at once.
func (f *Comment) Validate() Errors {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Body = strings.TrimSpace(f.Body)
	return check(f)
}

// Comment builds an unsaved, active comment with no post attached (PostID is zero).
func (f *Comment) Comment() db.Comment {
	return db.NewComment(f.Name, f.Email, f.Body)
}
