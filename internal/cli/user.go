package cli

import (
	"fmt"

	"github.com/inkpress/internal/service"
	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage author and administrator accounts",
	}

	var password string
	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account that can log in to the admin",
		Long: `Create an account with a bcrypt hashed password.

Examples:
  blogctl user create admin --password admin123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			gdb, err := opts.open()
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			user, err := service.NewUserService(gdb).Create(args[0], password)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CREATED %d %s\n", user.ID, user.Username)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&password, "password", "p", "", "password for the new account")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := opts.open()
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			users, err := service.NewUserService(gdb).List()
			if err != nil {
				return err
			}
			for _, user := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", user.ID, user.Username)
			}
			return nil
		},
	}

	userCmd.AddCommand(createCmd, listCmd)
	return userCmd
}
