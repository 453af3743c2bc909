package service

import (
	"context"
	"fmt"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/form"
	"github.com/inkpress/internal/mail"
)

// ShareService emails post recommendations.
type ShareService struct {
	mailer mail.Mailer
}

// NewShareService creates a ShareService sending through mailer.
func NewShareService(mailer mail.Mailer) *ShareService {
	return &ShareService{mailer: mailer}
}

// ComposeShareMessage builds the recommendation sent to f.To. postURL must be absolute.
func ComposeShareMessage(post *db.Post, f form.EmailPost, postURL string) mail.Message {
	return mail.Message{
		To:      []string{f.To},
		Subject: fmt.Sprintf("%s (%s) recommends you read %s", f.Name, f.Email, post.Title),
		Body:    fmt.Sprintf("Read %s at %s\n\n%s's comments: %s", post.Title, postURL, f.Name, f.Comments),
	}
}

// Share sends the recommendation for a validated form. Transport errors are returned as is.
func (s *ShareService) Share(ctx context.Context, post *db.Post, f form.EmailPost, postURL string) error {
	return s.mailer.Send(ctx, ComposeShareMessage(post, f, postURL))
}
