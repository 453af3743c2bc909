package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type seedPost struct {
	title string
	body  string
	tags  []string
	draft bool
}

var demoPosts = []seedPost{
	{
		title: "Getting started with Go",
		body:  "Go is a small language with a **big** standard library.\n\nThis post walks through installing the toolchain.",
		tags:  []string{"Go", "Tutorial"},
	},
	{
		title: "Notes on database migrations",
		body:  "Schema changes should be boring. Keep them small and reversible.",
		tags:  []string{"Databases"},
	},
	{
		title: "Weekend reading list",
		body:  "A few articles worth your time this week.",
		tags:  []string{"Life"},
	},
	{
		title: "Designing a tiny blog engine",
		body:  "Posts, comments, tags and an admin screen. That's all it takes.",
		tags:  []string{"Go", "Projects"},
	},
	{
		title: "Half-finished thoughts",
		body:  "Not ready yet.",
		tags:  []string{"Life"},
		draft: true,
	},
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo posts and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := opts.open()
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			created, err := seed(gdb, username, password, time.Now().UTC())
			if err != nil {
				return err
			}
			if created == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database already has posts, nothing to do")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d posts (login: %s)\n", created, username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "author of the demo posts")
	cmd.Flags().StringVar(&password, "password", "admin123", "password used when the author has to be created")
	return cmd
}

// seed creates the demo content unless posts already exist and returns how many posts it created.
func seed(gdb *gorm.DB, username, password string, now time.Time) (int, error) {
	var count int64
	if err := gdb.Model(&db.Post{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	users := service.NewUserService(gdb)
	author, err := users.Create(username, password)
	if errors.Is(err, service.ErrUserExists) {
		author = &db.User{}
		err = gdb.Where("username = ?", username).First(author).Error
	}
	if err != nil {
		return 0, fmt.Errorf("failed to prepare author: %w", err)
	}

	posts := service.NewPostService(gdb)
	comments := service.NewCommentService(gdb)

	for i, demo := range demoPosts {
		publish := now.AddDate(0, 0, -(len(demoPosts) - i))
		post, err := posts.Create(service.PostInput{
			Title:    demo.title,
			Body:     demo.body,
			AuthorID: author.ID,
			Publish:  &publish,
			Tags:     demo.tags,
		})
		if err != nil {
			return i, fmt.Errorf("failed to create %q: %w", demo.title, err)
		}
		if demo.draft {
			continue
		}
		if post, err = posts.Publish(post.ID); err != nil {
			return i, fmt.Errorf("failed to publish %q: %w", demo.title, err)
		}
		if _, err := comments.AddToPost(post, db.NewComment("Reader", "reader@example.com", "Thanks for writing this!")); err != nil {
			return i, fmt.Errorf("failed to comment on %q: %w", demo.title, err)
		}
	}
	return len(demoPosts), nil
}
