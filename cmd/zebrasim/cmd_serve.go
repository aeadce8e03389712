package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/api"
	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session HTTP API",
		Long: `Serve the session API. Defaults come from the environment
(SERVER_PORT, DB_PATH, DATA_DIR, ADMIN_KEY, RATE_LIMIT_RPS, RATE_LIMIT_BURST),
optionally loaded from .env.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			dbPath, _ := cmd.Flags().GetString("db")
			dataDir, _ := cmd.Flags().GetString("data-dir")

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return err
			}
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database opened", "path", dbPath)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &api.Server{
				DB:       db,
				DataDir:  dataDir,
				Port:     port,
				AdminKey: config.AdminKey(),
				RPS:      config.RateLimitRPS(),
				Burst:    config.RateLimitBurst(),
			}
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().Int("port", config.ServerPort(), "Listen port")
	cmd.Flags().String("db", config.DBPath(), "SQLite database path")
	cmd.Flags().String("data-dir", config.DataDir(), "Directory for run outputs")
	return cmd
}
