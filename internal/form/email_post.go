package form

import "strings"

// EmailPost is the "share this post by email" form.
type EmailPost struct {
	Name     string `form:"name" validate:"required,max=25"`
	Email    string `form:"email" validate:"required,email"`
	To       string `form:"to" validate:"required,email"`
	Comments string `form:"comments"`
}

// Validate trims every field and checks all constraints at once.
func (f *EmailPost) Validate() Errors {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.To = strings.TrimSpace(f.To)
	f.Comments = strings.TrimSpace(f.Comments)
	return check(f)
}
