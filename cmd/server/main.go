package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"contact-book/internal/cache"
	"contact-book/internal/config"
	"contact-book/internal/database"
	"contact-book/internal/server"
	"contact-book/internal/services"
	"contact-book/internal/storage"
	"contact-book/internal/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "contact-book",
		Short:        "Contact book web application",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), createSuperuserCmd())
	return root
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)
	return logger
}

func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	return database.Open(ctx, database.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		MaxAttempts:  10,
		RetryDelay:   2 * time.Second,
	}, logger)
}

func serveCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if autoMigrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}
			if cfg.SuperuserEmail != "" && cfg.SuperuserPassword != "" {
				if err := database.EnsureSuperuser(ctx, db, cfg.SuperuserEmail, cfg.SuperuserPassword, logger); err != nil {
					return err
				}
			}

			counts := cache.NewContactCounts(cache.NewHelper(nil, ""))
			if cfg.RedisURL != "" {
				client, err := cache.Connect(ctx, cfg.RedisURL)
				if err != nil {
					logger.Warn("redis unavailable, counting without cache", "error", err)
				} else {
					defer client.Close()
					counts = cache.NewContactCounts(cache.NewHelper(client, "contactbook:"))
				}
			}

			blobs, err := storage.NewFileSystem(cfg.MediaRoot)
			if err != nil {
				return err
			}

			v := validator.New()
			router, err := server.NewRouter(server.Deps{
				Config:   cfg,
				DB:       db,
				Contacts: services.NewContactService(db, blobs, counts, v, logger),
				Groups:   services.NewGroupService(db, v, logger),
				Users:    services.NewUserService(db, v, logger),
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:         ":" + cfg.ServerPort,
				Handler:      router,
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", "addr", srv.Addr, "environment", cfg.Environment)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db, err := openDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func createSuperuserCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a SUPER_ADMIN account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if password == "" {
				password = cfg.SuperuserPassword
			}
			if email == "" || len(password) < 8 {
				return errors.New("--email and a password of at least 8 characters are required")
			}
			logger := newLogger(cfg)

			db, err := openDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			user, err := database.CreateSuperuser(cmd.Context(), db, email, password)
			if err != nil {
				return err
			}
			logger.Info("super admin created", "user_id", user.ID, "email", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or SUPERUSER_PASSWORD)")
	return cmd
}
