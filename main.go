package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/dinein-lifecycle/app"
	"github.com/yeremiapane/dinein-lifecycle/config"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"github.com/yeremiapane/dinein-lifecycle/utils"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dinein",
		Short: "Dine-in table session lifecycle service",
	}
	cmd.AddCommand(newServeCommand(), newMigrateCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP and websocket server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			utils.SetLogLevel(cfg.Server.LogLevel)

			db, err := openDB(cfg, migrate)
			if err != nil {
				return err
			}
			return serve(cfg, db)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run AutoMigrate before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			_, err := openDB(cfg, true)
			return err
		},
	}
}

func openDB(cfg config.Config, migrate bool) (*gorm.DB, error) {
	db, err := config.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := store.AutoMigrate(db); err != nil {
			return nil, err
		}
		utils.InfoLogger.Println("AutoMigrate completed.")
	}
	return db, nil
}

func serve(cfg config.Config, db *gorm.DB) error {
	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = config.NewRedisClient(cfg.Redis)
		defer rdb.Close()
	}

	a, err := app.New(cfg, db, rdb)
	if err != nil {
		return err
	}
	a.Start()
	defer a.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		utils.InfoLogger.Printf("Received %s, shutting down", sig)
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
