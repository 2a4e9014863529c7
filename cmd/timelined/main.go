package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/reelworks/timeline/internal/api"
	"github.com/reelworks/timeline/internal/config"
	"github.com/reelworks/timeline/internal/db"
	"github.com/reelworks/timeline/internal/engine"
	"github.com/reelworks/timeline/internal/logging"
	"github.com/reelworks/timeline/internal/projectstore"
)

const usage = `usage: timelined [flags] [serve]
       timelined [flags] export <project-id>

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("timelined", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML config file (overrides "+config.EnvConfigFile+")")
	port := fs.IntP("port", "p", 0, "listen port")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Flags win over the environment and the file.
	if fs.Changed("port") {
		os.Setenv(config.EnvPort, strconv.Itoa(*port))
	}
	if fs.Changed("log-level") {
		os.Setenv(config.EnvLogLevel, *logLevel)
	}
	path := *configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rest := fs.Args()
	cmd := "serve"
	if len(rest) > 0 {
		cmd = rest[0]
	}
	switch cmd {
	case "serve":
		return serve(ctx, cfg, logger)
	case "export":
		if len(rest) != 2 {
			fs.Usage()
			return errors.New("export needs exactly one project id")
		}
		return exportProject(ctx, cfg, logger, rest[1])
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	startTime := time.Now()

	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	logger.Info("starting timelined", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.ServerDBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	token, created, err := ensureAuthToken(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}
	if created {
		// Shown once; later runs reuse the stored token.
		fmt.Printf("timelined API token: %s\n", token)
	}
	logger.Info("api token ready", "token", logging.SanitizeToken(token), "config_key", api.AuthTokenKey)

	server := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr(),
		Repository:     projectstore.NewRepository(database),
		Tokens:         database,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
		StartTime:      startTime,
		Version:        config.Version,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// exportProject loads one project through the same local/remote path an
// editing session uses and commits it to the configured export target.
func exportProject(ctx context.Context, cfg config.Config, logger *slog.Logger, projectID string) error {
	deps, closeDB, err := engine.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	target, err := engine.ExportTarget(cfg, logger)
	if err != nil {
		return err
	}

	session, err := engine.Open(ctx, projectID, deps, engine.OptionsFrom(cfg))
	if err != nil {
		return err
	}
	defer session.Close(context.Background())
	if session.LoadedFrom() == "" {
		return fmt.Errorf("project %s not found locally or remotely", projectID)
	}

	name, err := session.Export(ctx, target)
	if err != nil {
		return err
	}
	logger.Info("export complete", "project_id", projectID, "file", name, "source", session.LoadedFrom())
	return nil
}

func ensureAuthToken(ctx context.Context, database *db.DB) (string, bool, error) {
	existing, err := database.GetConfig(ctx, api.AuthTokenKey)
	if err != nil {
		return "", false, err
	}
	if existing != "" {
		return existing, false, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", false, err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := database.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", false, err
	}
	return token, true, nil
}
