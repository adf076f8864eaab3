// Package main provides the rosterd binary entry point. It serves the shift
// roster HTTP API and offers maintenance subcommands for snapshots, archive
// exchange, and database seeding.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/shift-roster/internal/application"
	"github.com/example/shift-roster/internal/backup"
	"github.com/example/shift-roster/internal/config"
	httptransport "github.com/example/shift-roster/internal/http"
	"github.com/example/shift-roster/internal/logging"
	"github.com/example/shift-roster/internal/persistence/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rosterd",
		Short:         "Shift roster administration service",
		Long:          "Rosterd serves the shift roster HTTP API and provides\nmaintenance commands for snapshots, archive exchange, and seeding.\n\nConfiguration comes from ROSTER_* environment variables, optionally\nlayered over a YAML file named by ROSTER_CONFIG_FILE.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(snapshotCmd())
	cmd.AddCommand(restoreCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(seedCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Create a database snapshot in the backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			snapshot, err := env.snapshots.CreateSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("create snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), snapshot.ID)
			return nil
		},
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Replace the live database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.snapshots.RestoreSnapshot(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full database as a JSON archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			doc, err := env.archiver.ExportJSON(cmd.Context())
			if err != nil {
				return fmt.Errorf("export archive: %w", err)
			}

			payload, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode archive: %w", err)
			}
			payload = append(payload, '\n')

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(payload)
				return err
			}
			if err := os.WriteFile(output, payload, 0o600); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <archive.json>",
		Short: "Replace all database contents with a JSON archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			var doc backup.Document
			if err := json.Unmarshal(payload, &doc); err != nil {
				return fmt.Errorf("decode archive: %w", err)
			}

			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			result, err := env.archiver.ImportJSON(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("import archive: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "employees: %d\n", result.Employees)
			fmt.Fprintf(out, "shift codes: %d\n", result.ShiftCodes)
			fmt.Fprintf(out, "users: %d\n", result.Users)
			fmt.Fprintf(out, "assignments: %d\n", result.Assignments)
			fmt.Fprintf(out, "settings: %d\n", result.Settings)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var adminPassword string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write default shift codes, settings, and the bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminPassword == "" {
				adminPassword = os.Getenv("ROSTER_ADMIN_PASSWORD")
			}
			if adminPassword == "" {
				return errors.New("an admin password is required: use --admin-password or ROSTER_ADMIN_PASSWORD")
			}

			env, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			seeder := application.NewSeeder(
				sqlite.NewShiftCodeRepository(env.pool),
				sqlite.NewSettingRepository(env.pool),
				sqlite.NewUserRepository(env.pool),
				env.logger,
			)
			if err := seeder.Seed(cmd.Context(), adminPassword); err != nil {
				return fmt.Errorf("seed database: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for the bootstrap admin account")
	return cmd
}

// environment bundles the dependencies shared by every subcommand.
type environment struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *sqlite.ConnectionPool
	snapshots *backup.Manager
	archiver  *backup.Archiver
}

func (e *environment) close() {
	if err := e.pool.Close(); err != nil {
		e.logger.Error("failed to close storage", "error", err)
	}
}

func bootstrap(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	pool, err := sqlite.NewConnectionPool(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := sqlite.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	snapshots, err := backup.NewManager(pool, cfg.BackupDir, cfg.BackupRetention, time.Now, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("prepare backup directory: %w", err)
	}
	archiver := backup.NewArchiver(sqlite.NewBackupStore(pool), snapshots, application.TemporaryPasswordHash, time.Now, logger)

	return &environment{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		snapshots: snapshots,
		archiver:  archiver,
	}, nil
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer env.close()
	logger := env.logger

	if err := env.snapshots.EnsureHealthy(ctx); err != nil {
		return fmt.Errorf("verify database health: %w", err)
	}

	employeeRepo := sqlite.NewEmployeeRepository(env.pool)
	assignmentRepo := sqlite.NewAssignmentRepository(env.pool)
	shiftCodeRepo := sqlite.NewShiftCodeRepository(env.pool)
	userRepo := sqlite.NewUserRepository(env.pool)
	sessionRepo := sqlite.NewSessionRepository(env.pool)
	settingRepo := sqlite.NewSettingRepository(env.pool)
	auditRepo := sqlite.NewAuditRepository(env.pool)

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	authService := application.NewAuthService(userRepo, sessionRepo, nil, tokenGenerator, idGenerator, now, env.cfg.SessionTTL, logger)
	employeeService := application.NewEmployeeService(employeeRepo, auditRepo, idGenerator, now, logger)
	shiftCodeService := application.NewShiftCodeService(shiftCodeRepo, auditRepo, now, logger)
	rosterService := application.NewRosterService(employeeRepo, assignmentRepo, shiftCodeRepo, auditRepo, now, logger)
	userService := application.NewUserService(userRepo, employeeRepo, auditRepo, now, logger)
	settingsService := application.NewSettingsService(settingRepo, auditRepo, now, logger)
	backupService := application.NewBackupService(env.snapshots, env.archiver, auditRepo, now, logger)
	auditService := application.NewAuditService(auditRepo)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, userService, logger),
		Employees:  httptransport.NewEmployeeHandler(employeeService, logger),
		ShiftCodes: httptransport.NewShiftCodeHandler(shiftCodeService, logger),
		Roster:     httptransport.NewRosterHandler(rosterService, logger),
		Users:      httptransport.NewUserHandler(userService, logger),
		Settings:   httptransport.NewSettingsHandler(settingsService, logger),
		Backups:    httptransport.NewBackupHandler(backupService, auditService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequirePasswordChanged(logger, "/sessions/password", "/sessions/current"),
		},
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Path, "/sessions") && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("roster API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
