// Command migrate applies or inspects the books schema.
//
// Usage:
//
//	migrate [-db-dsn DSN] up|down|status|version
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/aoideee/book-inventory/migrations"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using existing environment variables")
	}

	var dsn string
	flag.StringVar(&dsn, "db-dsn", os.Getenv("BOOKS_DB_DSN"), "PostgreSQL DSN")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	logger.Info("running migrations", "command", command)

	switch command {
	case "up":
		err = migrations.Up(db)
	case "down":
		err = migrations.Down(db)
	case "status":
		err = migrations.Status(db)
	case "version":
		var version int64
		version, err = migrations.Version(db)
		if err == nil {
			logger.Info("current migration version", "version", version)
		}
	default:
		logger.Error("unknown command, available commands: up, down, status, version", "command", command)
		os.Exit(2)
	}

	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info("done", "command", command)
}
