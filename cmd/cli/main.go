package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-ledger/cmd/cli/commands"
	"github.com/jakechorley/shift-ledger/internal/config"
	"github.com/jakechorley/shift-ledger/pkg/auth"
	"github.com/jakechorley/shift-ledger/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-ledger/pkg/core/model"
	"github.com/jakechorley/shift-ledger/pkg/db"
	"github.com/jakechorley/shift-ledger/pkg/postgres"
	"github.com/jakechorley/shift-ledger/pkg/utils"
	"github.com/jakechorley/shift-ledger/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{Ctx: context.Background()}
	closers []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shift-ledger",
		Short: "Shift Ledger CLI - Record shifts and overtime",
		Long:  `A CLI tool for recording worker shifts per site and computing overtime from a shared spreadsheet.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for _, c := range closers {
				c()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&app.User, "user", "u", "", "User to log in as (password from $"+commands.PasswordEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.StartShiftCmd(app))
	rootCmd.AddCommand(commands.CloseShiftCmd(app))
	rootCmd.AddCommand(commands.ComputeOvertimeCmd(app))
	rootCmd.AddCommand(commands.ListShiftsCmd(app))
	rootCmd.AddCommand(commands.ExportShiftsCmd(app))
	rootCmd.AddCommand(commands.OvertimeSummaryCmd(app))
	rootCmd.AddCommand(commands.ListSitesCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))
	rootCmd.AddCommand(commands.HashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store and credential verifier
func initApp() error {
	var err error

	app.Logger, err = logging.InitLogger(env, logging.DefaultDir, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("timezone", app.Cfg.Timezone),
		zap.Strings("sites", app.Cfg.Sites))

	app.Verifier = auth.NewConfigVerifier(app.Cfg.Users)
	app.Session = model.NewSession()

	if app.Cfg.DatabaseURL != "" {
		app.Database, err = initPostgres()
	} else {
		app.Database, err = initSheets()
	}
	if err != nil {
		return err
	}
	app.Logger.Info("Database initialized successfully")

	return nil
}

func initPostgres() (db.Database, error) {
	app.Logger.Info("Connecting to PostgreSQL")
	ctx, cancel := app.StoreContext()
	defer cancel()

	pg, err := postgres.NewDB(ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers = append(closers, pg.Close)

	if err := pg.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pg, nil
}

func initSheets() (db.Database, error) {
	httpClient, err := googleHTTPClient()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing sheets client")
	sheetsClient, err := sheetsclient.NewClient(app.Ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	app.Logger.Info("Connecting to spreadsheet", zap.String("spreadsheet_id", app.Cfg.SpreadsheetID))
	ctx, cancel := app.StoreContext()
	defer cancel()

	sheetsDB, err := db.Open(ctx, sheetsClient, app.Cfg.SpreadsheetID)
	if err != nil {
		return nil, err
	}
	return sheetsDB, nil
}

// googleHTTPClient prefers a service account key and falls back to the
// installed-app OAuth flow
func googleHTTPClient() (*http.Client, error) {
	if app.Cfg.ServiceAccountFile != "" {
		app.Logger.Info("Using service account credentials", zap.String("file", app.Cfg.ServiceAccountFile))
		client, err := utils.ServiceAccountClient(app.Ctx, app.Cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load service account: %w", err)
		}
		return client, nil
	}

	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}
	client, err := utils.OAuthClient(app.Ctx, oauthCfg, env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize with Google: %w", err)
	}
	return client, nil
}
