package commands

import (
	"time"

	"github.com/spf13/cobra"

	"shopfront/cmd/shopctl/output"
	"shopfront/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
}

var tokenEmail string

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for an existing account without its password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(users service.UserService) error {
			session, err := users.IssueToken(cmd.Context(), tokenEmail)
			if err != nil {
				return err
			}

			if jsonOutput {
				return output.JSON(map[string]string{
					"accessToken": session.Token,
					"expiresAt":   session.ExpiresAt.Format(time.RFC3339),
				})
			}
			output.Success("Issued token for %s (%s)", session.User.Email, session.User.Role)
			output.Field("expires", session.ExpiresAt.Format(time.RFC3339))
			output.Muted("%s", session.Token)
			return nil
		})
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenEmail, "email", "", "Account email")
	_ = tokenIssueCmd.MarkFlagRequired("email")

	tokenCmd.AddCommand(tokenIssueCmd)
}
