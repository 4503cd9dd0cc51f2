package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/drxagencia/dashboards/internal/app"
	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/migration"
	companyrepo "github.com/drxagencia/dashboards/internal/repository/company"
	"github.com/drxagencia/dashboards/internal/seeder"
	"github.com/drxagencia/dashboards/internal/service/finance"
	"github.com/drxagencia/dashboards/internal/service/session"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the root painel CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "painel",
		Short:         "Owner dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newCompanyCmd())
	root.AddCommand(newFinanceCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the painel CLI until the command finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Module)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the sql store schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				version, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a demo company with orders and a menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.Company(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s for %s\n", seeder.DemoCompany, email)
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "Owner email bound to the demo company")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCompanyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Inspect companies",
	}
	lookup := &cobra.Command{
		Use:   "lookup",
		Short: "Find the company an owner email is linked to",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			var sessions *session.Service
			opts := fx.Options(app.Core, fx.Populate(&sessions))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				company, err := sessions.LookupCompany(ctx, email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", company.ID, company.DisplayName())
				return nil
			})
		},
	}
	lookup.Flags().String("email", "", "Owner email")
	_ = lookup.MarkFlagRequired("email")
	cmd.AddCommand(lookup)
	return cmd
}

func newFinanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Revenue reports",
	}
	report := &cobra.Command{
		Use:   "report",
		Short: "Print or export a company's monthly summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, _ := cmd.Flags().GetString("company")
			month, _ := cmd.Flags().GetString("month")
			out, _ := cmd.Flags().GetString("out")

			var (
				svc       *finance.Service
				companies *companyrepo.Repository
			)
			opts := fx.Options(app.Core, fx.Populate(&svc, &companies))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				ym := svc.CurrentMonth()
				if month != "" {
					parsed, err := entity.ParseYearMonth(month)
					if err != nil {
						return err
					}
					ym = parsed
				}

				summary, err := svc.Summary(ctx, companyID, ym)
				if err != nil {
					return err
				}

				if out == "" {
					w := cmd.OutOrStdout()
					fmt.Fprintf(w, "month\t%s\n", ym)
					fmt.Fprintf(w, "revenue\t%s\n", summary.TotalRevenue.StringFixed(2))
					fmt.Fprintf(w, "profit\t%s\n", summary.EstimatedProfit.StringFixed(2))
					fmt.Fprintf(w, "completed\t%d\n", summary.CompletedCount)
					return nil
				}

				name := companyID
				if company, err := companies.Get(ctx, companyID); err == nil {
					name = company.DisplayName()
				}
				data, err := finance.ExportXLSX(name, summary)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", out)
				return nil
			})
		},
	}
	report.Flags().String("company", "", "Company id")
	report.Flags().String("month", "", "Month as YYYY-MM (defaults to the current month)")
	report.Flags().String("out", "", "Write an xlsx workbook to this path instead of printing")
	_ = report.MarkFlagRequired("company")
	cmd.AddCommand(report)
	return cmd
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Static account helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for a static accounts file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
