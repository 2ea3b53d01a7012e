package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator commands",
	}

	cmd.AddCommand(newAdminRegisterCmd())
	cmd.AddCommand(newAdminGamesCmd())
	cmd.AddCommand(newAdminPhoneCmd("activate", "Activate an account"))
	cmd.AddCommand(newAdminPhoneCmd("deactivate", "Deactivate an account and revoke its sessions"))
	cmd.AddCommand(newAdminPhoneCmd("promote", "Grant the administrator role"))

	return cmd
}

func newAdminRegisterCmd() *cobra.Command {
	var name, phone, pass, code string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":       name,
				"phone":      phone,
				"password":   pass,
				"admin_code": code,
			}
			var result MessageResult

			if err := client.Post("/admin/register", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&code, "code", "", "Administrator registration code (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("pass")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newAdminGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List every game with its owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AdminGamesResult

			if err := client.Get("/admin/games", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

// newAdminPhoneCmd builds the account actions that take only a phone number
func newAdminPhoneCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <phone>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageResult

			if err := client.Post(fmt.Sprintf("/admin/%s", action), map[string]string{"phone": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
