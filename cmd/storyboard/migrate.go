package main

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/storyboard/internal/store"
	"github.com/eringen/storyboard/scaffold"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("storyboard: %w", err)
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("storyboard: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", db.Driver())
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	var (
		appURL string
		admin  string
	)
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Write a starter config.yaml and .env.example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := url.ParseRequestURI(appURL); err != nil {
				return fmt.Errorf("invalid --url: %w", err)
			}
			dir := args[0]
			created, err := scaffold.Write(dir, scaffold.Data{
				SiteName: scaffold.TitleCase(filepath.Base(filepath.Clean(dir))),
				AppURL:   appURL,
				Admin:    admin,
			})
			for _, path := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "  created %s\n", path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&appURL, "url", "http://localhost:3000", "public URL of the site")
	cmd.Flags().StringVar(&admin, "admin", "", "email that gets the admin role on first sign-in")
	return cmd
}
