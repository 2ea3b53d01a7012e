package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account commands",
	}

	cmd.AddCommand(newAccountRegisterCmd())
	cmd.AddCommand(newAccountResendCmd())
	cmd.AddCommand(newAccountVerifyCmd())
	cmd.AddCommand(newAccountLoginCmd())
	cmd.AddCommand(newAccountLogoutCmd())
	cmd.AddCommand(newAccountMeCmd())

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	var name, phone, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new player account and receive a verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":     name,
				"phone":    phone,
				"password": pass,
			}
			var result MessageResult

			if err := client.Post("/register", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountResendCmd() *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Send a new verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageResult

			if err := client.Post("/resend-code", map[string]string{"phone": phone}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newAccountVerifyCmd() *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "verify <code>",
		Short: "Verify a phone number with the received code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"phone": phone, "code": args[0]}
			var result MessageResult

			if err := client.Post("/verify", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var phone, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"phone":    phone,
				"password": pass,
			}
			var result LoginResult

			if err := client.Post("/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAccountLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageResult

			if err := client.Post("/logout", nil, &result); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newAccountMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result User

			if err := client.Get("/me", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
