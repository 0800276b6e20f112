package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/bootstrap"
	"github.com/fadilmartias/resume-screener/internal/logger"
)

const (
	app = "screenctl"
)

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "screenctl operates the résumé screening pipeline against its database",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadEnv)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	if err := viper.BindEnv("debug", "LOG_DEBUG"); err != nil {
		log.Fatalf("binding LOG_DEBUG environment variable: %v", err)
	}
	if err := viper.BindEnv("json", "LOG_JSON"); err != nil {
		log.Fatalf("binding LOG_JSON environment variable: %v", err)
	}
}

func loadEnv() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("could not load %s: %v", envFile, err)
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// withContainer runs fn against a fully wired pipeline and releases it after.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container, log *zap.Logger) error) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := commandContext(cmd)
	defer stop()

	c, err := bootstrap.New(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return fn(ctx, c, log)
}

// withDB runs fn with a migrated database only, for commands that do not
// need the pipeline.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *gorm.DB, log *zap.Logger) error) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := commandContext(cmd)
	defer stop()

	db, err := bootstrap.ConnectDB(log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(ctx, db, log)
}
