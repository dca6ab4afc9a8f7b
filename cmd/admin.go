/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lebbnb/apiserver/config"
	"github.com/lebbnb/apiserver/internal/auth"
	"github.com/lebbnb/apiserver/internal/db"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// adminCmd represents the admin command.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an admin account",
	Long: `Create an admin account. The password is prompted for interactively
and never echoed. Usage:

	lebbnb admin create admin@example.com --name "Site Admin" --role superadmin
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(strings.TrimSpace(args[0]))
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		if role != types.RoleAdmin && role != types.RoleSuperAdmin {
			return fmt.Errorf("invalid role %q", role)
		}

		password, err := promptPassword()
		if err != nil {
			return err
		}
		if err := auth.ValidatePassword(password); err != nil {
			return errors.New("password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit, and a symbol")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = dbConn.Close()
		}()

		repo := store.NewAdminRepository(dbConn)
		admin, err := repo.Create(cmd.Context(), types.Admin{
			Email:        email,
			Name:         strings.TrimSpace(name),
			Role:         role,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("admin %s already exists", email)
			}
			return err
		}

		fmt.Printf("created admin %s (id %d, role %s)\n", admin.Email, admin.ID, admin.Role)
		return nil
	},
}

var adminDeactivateCmd = &cobra.Command{
	Use:   "deactivate <email>",
	Short: "Deactivate an admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdminActive(cmd, args[0], false)
	},
}

var adminActivateCmd = &cobra.Command{
	Use:   "activate <email>",
	Short: "Reactivate an admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdminActive(cmd, args[0], true)
	},
}

func setAdminActive(cmd *cobra.Command, email string, active bool) error {
	email = strings.ToLower(strings.TrimSpace(email))

	cfg := config.LoadConfig()
	dbConn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbConn.Close()
	}()

	repo := store.NewAdminRepository(dbConn)
	admin, err := repo.GetByEmail(cmd.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("admin %s not found", email)
		}
		return err
	}
	if err := repo.SetActive(cmd.Context(), admin.ID, active); err != nil {
		return err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("%s admin %s (id %d)\n", state, admin.Email, admin.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminDeactivateCmd)
	adminCmd.AddCommand(adminActivateCmd)

	adminCreateCmd.Flags().String("name", "", "display name for the account")
	adminCreateCmd.Flags().String("role", types.RoleAdmin, "account role (admin or superadmin)")
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password failed: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password failed: %w", err)
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}
