package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tailorone/backend/internal/repository"
	"github.com/tailorone/backend/internal/service"
	"github.com/tailorone/backend/pkg/mailer"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE:  runMigrateStatus,
		},
	)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, log, db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := repository.RunMigrations(ctx, db)
	if err != nil {
		return err
	}
	log.Info("migrations applied", "version", version)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, _, db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := repository.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}

func newSeedAdminCommand() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account or promote an existing user",
		Long:  `Creates the admin user from ADMIN_EMAIL/ADMIN_PASSWORD (or the flags). An existing account with that e-mail is promoted to admin and marked verified.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if email != "" {
				cfg.AdminEmail = email
			}
			if name != "" {
				cfg.AdminName = name
			}
			if password != "" {
				cfg.AdminPassword = password
			}
			if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
				return fmt.Errorf("admin e-mail and password are required (ADMIN_EMAIL/ADMIN_PASSWORD or --email/--password)")
			}

			auth := service.NewAuthService(service.AuthConfig{
				JWTSecret:     cfg.JWTSecret,
				JWTExpires:    cfg.JWTExpires,
				AdminEmail:    cfg.AdminEmail,
				AdminName:     cfg.AdminName,
				AdminPassword: cfg.AdminPassword,
			}, repository.NewUserRepository(db), mailer.LogMailer{Logger: log})

			return auth.SeedAdmin(ctx)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin e-mail (overrides ADMIN_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name (overrides ADMIN_NAME)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (overrides ADMIN_PASSWORD)")
	return cmd
}

func newExpireSubscriptionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-subscriptions",
		Short: "Write back the derived status of stale subscriptions",
		Long:  `Runs the subscription expiry sweep once: every instance whose stored status no longer matches its usage and end date is corrected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			subs := service.NewSubscriptionService(
				repository.NewPlanRepository(db),
				repository.NewUserSubscriptionRepository(db),
				service.NoopPublisher{},
			)
			n, err := subs.ExpireDue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "corrected %d subscription(s)\n", n)
			return nil
		},
	}
}

func newListUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "Print every account with its role and verification state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := repository.NewUserRepository(db).ListAll(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tVERIFIED\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", u.ID, u.Email, u.Role, u.IsVerified, u.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
}
