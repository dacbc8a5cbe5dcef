package commands

import (
	"time"

	"github.com/spf13/cobra"

	"shopfront/cmd/shopctl/output"
	"shopfront/internal/domain"
	"shopfront/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var (
	userEmail    string
	userPassword string
	userRole     string
)

var userCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a buyer or seller account",
	Example: `  shopctl user create --email seller@example.com --password 's3cret-pass' --role seller`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(users service.UserService) error {
			user, err := users.Register(cmd.Context(), domain.RegisterInput{
				Email:    userEmail,
				Password: userPassword,
				Role:     userRole,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return output.JSON(map[string]string{
					"id":        user.ID.String(),
					"email":     user.Email,
					"role":      string(user.Role),
					"createdAt": user.CreatedAt.Format(time.RFC3339),
				})
			}
			output.Success("Created %s account", user.Role)
			output.Field("id", user.ID.String())
			output.Field("email", user.Email)
			return nil
		})
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Account email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Account password (8 to 64 characters)")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(domain.RoleBuyer), "Account role: buyer or seller")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}
