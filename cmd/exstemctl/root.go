package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/database"
	"github.com/stemsi/exstem-engine/internal/logger"
	"github.com/stemsi/exstem-engine/internal/repository"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "exstemctl",
		Short:        "Operate the ExStem exam engine",
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.String("database-url", "", "PostgreSQL URL (default from DATABASE_URL)")
	f.String("redis-url", "", "Redis URL (default from REDIS_URL)")
	f.String("jwt-secret", "", "JWT signing secret (default from JWT_SECRET)")
	f.String("finalize-mode", "", "sync or deferred (default from FINALIZE_MODE)")
	f.String("log-level", "", "Log level (default from LOG_LEVEL)")

	root.AddCommand(tokenCmd(), leaderboardCmd(), finalizeCmd(), sweepCmd())
	return root
}

// viperForCmd binds a command's flags and the environment to a fresh viper
// instance. Flag "database-url" also reads DATABASE_URL.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("exstemctl")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/exstem")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config file: %v\n", err)
		}
	}
	return v
}

// loadConfig layers flags and config file values over the server's
// environment configuration.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	v := viperForCmd(cmd)

	override := func(dst *string, key string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	override(&cfg.DatabaseURL, "database-url")
	override(&cfg.RedisURL, "redis-url")
	override(&cfg.JWTSecret, "jwt-secret")
	override(&cfg.FinalizeMode, "finalize-mode")
	override(&cfg.LogLevel, "log-level")
	return cfg
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(os.Stderr, cfg.LogLevel, "pretty")
}

// env holds the connections a command opened; close releases them.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	pool  *pgxpool.Pool
	rdb   *redis.Client
	store repository.Store
}

func openEnv(ctx context.Context, cmd *cobra.Command, withRedis bool) (*env, error) {
	cfg := loadConfig(cmd)
	log := cliLogger(cfg)

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log, pool: pool, store: repository.NewPgStore(pool)}

	if withRedis {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			pool.Close()
			return nil, err
		}
		e.rdb = rdb
	}
	return e, nil
}

func (e *env) close() {
	if e.rdb != nil {
		e.rdb.Close()
	}
	e.pool.Close()
}
