package cmd

import (
	"fmt"

	"asso_funds/internal/app"
	"asso_funds/internal/domain"

	"github.com/spf13/cobra"
)

var (
	createUsername string
	createPassword string
	createRole     string

	setRoleUsername string
	setRoleRole     string
)

// userCmd groups the account commands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Create users and change their roles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with any role",
	Long: `Create a user account. Roles: member (user), treasurer (tresorier),
president, controller (PCO).

Example:
  assoctl user create --username alice --password s3cretpass --role treasurer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := domain.ParseRole(createRole)
		if err != nil {
			return err
		}
		return withServices(cmd.Context(), func(svc *app.Services) error {
			u, err := svc.Users.Create(cmd.Context(), createUsername, createPassword, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
			return nil
		})
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:     "set-role",
	Short:   "Change the role of an existing user",
	Example: `  assoctl user set-role --username bob --role president`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := domain.ParseRole(setRoleRole)
		if err != nil {
			return err
		}
		return withServices(cmd.Context(), func(svc *app.Services) error {
			if err := svc.Users.SetRole(cmd.Context(), setRoleUsername, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", setRoleUsername, role)
			return nil
		})
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&createUsername, "username", "", "username (required)")
	userCreateCmd.Flags().StringVar(&createPassword, "password", "", "password, 8 to 72 characters (required)")
	userCreateCmd.Flags().StringVar(&createRole, "role", string(domain.RoleMember), "role")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userSetRoleCmd.Flags().StringVar(&setRoleUsername, "username", "", "username (required)")
	userSetRoleCmd.Flags().StringVar(&setRoleRole, "role", "", "new role (required)")
	_ = userSetRoleCmd.MarkFlagRequired("username")
	_ = userSetRoleCmd.MarkFlagRequired("role")

	userCmd.AddCommand(userCreateCmd, userSetRoleCmd)
}
