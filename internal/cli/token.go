package cli

import (
	"fmt"
	"time"

	"staff-quiz/internal/dto"
	"staff-quiz/internal/service"
	"staff-quiz/internal/util"

	"github.com/spf13/cobra"
)

// NewIssueTokenCmd signs a staff access token. Tokens are normally issued by
// the identity service; this is for local testing and support.
func NewIssueTokenCmd(configPath *string) *cobra.Command {
	var (
		claims dto.StaffClaims
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign a staff access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if claims.Access != dto.AccessStaff && claims.Access != dto.AccessManager {
				return fmt.Errorf("access must be %q or %q", dto.AccessStaff, dto.AccessManager)
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			tokens, err := service.NewTokenService(cfg.JWT, util.SystemClock{})
			if err != nil {
				return err
			}
			signed, err := tokens.IssueStaffToken(claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&claims.StaffID, "staff", "", "staff member ID")
	cmd.Flags().StringVar(&claims.RestaurantID, "restaurant", "", "restaurant ID")
	cmd.Flags().StringVar(&claims.RoleID, "role", "", "job role ID, e.g. server")
	cmd.Flags().StringVar(&claims.Access, "access", dto.AccessStaff, "staff or manager")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("restaurant")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
