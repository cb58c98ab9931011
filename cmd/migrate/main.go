// Command migrate applies the embedded goose migrations to DATABASE_URL.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate -timeout 2m down
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/kmetijamarosa/storefront/internal/db"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

	databaseURL := flag.String("database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	timeout := flag.Duration("timeout", time.Minute, "overall migration timeout")
	list := flag.Bool("list", false, "print embedded migration files and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] <up|down|status|version|redo|reset> [args]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		files, err := db.MigrationFiles()
		if err != nil {
			logger.Error("failed to list migrations", "error", err)
			os.Exit(1)
		}
		for _, name := range files {
			fmt.Println(name)
		}
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}
	url := strings.TrimSpace(*databaseURL)
	if url == "" {
		url = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if url == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	command := flag.Arg(0)
	if err := db.Migrate(ctx, url, command, flag.Args()[1:]...); err != nil {
		logger.Error("migration failed", "command", command, "error", err)
		cancel()
		os.Exit(1)
	}
	logger.Info("migration finished", "command", command)
}
