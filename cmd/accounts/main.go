package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
)

const usage = `usage: accounts [command]

commands:
  serve     run the HTTP server (default)
  migrate   apply database migrations
  seed      create the demo users
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	migrate := fs.Bool("migrate", false, "apply migrations before serving")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := accounts.LoadConfig()
	if err != nil {
		return err
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := accounts.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	db, err := accounts.OpenDatabase(cfg.DBDialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := accounts.NewRepositoryManager(db)
	repos.MustValidate()

	switch command {
	case "migrate":
		return accounts.RunMigrations(ctx, db, cfg.DBDialect)
	case "seed":
		return seed(ctx, cfg, repos, logger)
	case "serve":
		if *migrate {
			if err := accounts.RunMigrations(ctx, db, cfg.DBDialect); err != nil {
				return err
			}
		}
		return serve(ctx, cfg, repos, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func newService(cfg *accounts.BaseConfig, users accounts.Users, logger *accounts.SlogLogger) *accounts.Service {
	return accounts.NewService(users, accounts.NewHasher(cfg.GetBcryptCost())).
		WithLogger(logger.With("component", "accounts")).
		WithActivitySink(activitymap.NewSink(logger.With("component", "activity")))
}

// seed runs in a single transaction so a failure leaves no partial set
func seed(ctx context.Context, cfg *accounts.BaseConfig, repos accounts.RepositoryManager, logger *accounts.SlogLogger) error {
	created := 0
	err := repos.RunInTx(ctx, nil, func(ctx context.Context, users accounts.Users) error {
		var err error
		created, err = accounts.SeedDemoUsers(ctx, newService(cfg, users, logger))
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("demo users seeded", "created", created)
	return nil
}

func serve(ctx context.Context, cfg *accounts.BaseConfig, repos accounts.RepositoryManager, logger *accounts.SlogLogger) error {
	tokens, err := accounts.NewTokenService(accounts.TokenConfigFromConfig(cfg), logger.With("component", "tokens"))
	if err != nil {
		return err
	}

	service := newService(cfg, repos.Users(), logger)
	sessions := accounts.NewSessionManager(cfg, tokens, service).
		WithLogger(logger.With("component", "sessions"))
	controller := accounts.NewController(service, sessions).
		WithLogger(logger.With("component", "http"))

	app := accounts.NewHTTPServer(cfg, controller, logger.With("component", "errors"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr(), "env", cfg.GetEnvironment())
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
