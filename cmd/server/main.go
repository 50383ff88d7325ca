package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"research-backend/internal/auth"
	"research-backend/internal/config"
	"research-backend/internal/engine"
	"research-backend/internal/instrument"
	"research-backend/internal/metadata"
	"research-backend/internal/storage"
	"research-backend/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "research-backend",
	Short: "Ownership-scoped resource API for research notes, citations, projects, files, timelines and profiles",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap tables and start the HTTP server",
	RunE:  runServe,
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create missing resource tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := store.New(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		return db.Bootstrap(cmd.Context(), metadata.Default().AllResources())
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [identity]",
	Short: "Mint a development access token for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		token, err := auth.GenerateAccessToken(args[0], cfg.JWTSecret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.AccessTokenTTL, "token lifetime")
	rootCmd.AddCommand(serveCmd, bootstrapCmd, tokenCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Printf("Config loaded (port: %d, db: %s, storage: %s)", cfg.Server.Port, cfg.Database.Driver, cfg.Storage.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.Printf("Database connected (%s)", db.Driver())

	// 3. Bootstrap resource tables
	reg := metadata.Default()
	if err := db.Bootstrap(ctx, reg.AllResources()); err != nil {
		return fmt.Errorf("bootstrap tables: %w", err)
	}
	log.Printf("Resources ready: %s", strings.Join(reg.Names(), ", "))

	// 4. Blob storage
	fs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// 5. Metrics
	var metrics *instrument.Metrics
	opts := []engine.Option{}
	if cfg.Metrics.Enabled {
		metrics = instrument.NewMetrics()
		opts = append(opts, engine.WithRecorder(metrics))
	}

	svc, err := engine.NewService(db.DB, db.Dialect, reg, opts...)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	app := newApp(appDeps{
		service:     svc,
		pinger:      db,
		storage:     fs,
		metrics:     metrics,
		jwtSecret:   cfg.JWTSecret,
		maxFileSize: cfg.Storage.MaxFileSize,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	return app.Listen(addr)
}
