package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studio-ops-api/internal/auth"
	"studio-ops-api/internal/config"
	"studio-ops-api/internal/database"
	"studio-ops-api/internal/handlers"
	"studio-ops-api/internal/models"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, err := database.Open(cfg.DatabasePath, gormLogLevel(cfg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s\n", cfg.DatabasePath)
			return nil
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var username, password, role string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a dashboard user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DatabasePath, gormLogLevel(cfg))
			if err != nil {
				return err
			}
			user, err := handlers.CreateUser(db, username, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (%s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "admin or user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID, username, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed token, e.g. for a websocket authenticate message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.NewTokenService(tokenConfig(cfg), nil).Generate(userID, username, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "subject user id")
	cmd.Flags().StringVar(&username, "username", "", "username claim")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "role claim")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
