package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/internal/console"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/upload"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		port    int
		host    string
		apiURL  string
		logJSON bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console",
		Long: `Start the console HTTP server.

Examples:
  vango-admin serve
  vango-admin serve --port=8081 --api=http://localhost:8080/api
  vango-admin serve -c /etc/vango-admin --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if logJSON {
				cfg.Log.Format = "json"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from admin.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from admin.json)")
	cmd.Flags().StringVar(&apiURL, "api", "", "Backend base URL (default from admin.json)")
	cmd.Flags().BoolVar(&logJSON, "json", false, "Log as JSON")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	sessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	opts := []console.Option{
		console.WithLogger(logger),
		console.WithSessionStore(sessions),
	}
	if cfg.Upload.Store == "s3" {
		opts = append(opts, console.WithUploadStore(openS3Store(cfg)))
	}

	s, err := console.New(cfg, opts...)
	if err != nil {
		_ = sessions.Close()
		return err
	}

	fmt.Println()
	info("Console:  %s", cfg.URL())
	info("Backend:  %s", cfg.API.BaseURL)
	info("Sessions: %s", cfg.Session.Store)
	info("Uploads:  %s", cfg.Upload.Store)
	fmt.Println()

	return s.Run()
}

// openSessionStore picks the credential store named by session.store.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := session.NewRedisStoreFromURL(ctx, cfg.Session.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect session redis: %w", err)
	}
	return store, nil
}

func openS3Store(cfg *config.Config) *upload.S3Store {
	s3cfg := upload.S3Config{
		Bucket:          cfg.Upload.S3.Bucket,
		Prefix:          cfg.Upload.S3.Prefix,
		Region:          cfg.Upload.S3.Region,
		Endpoint:        cfg.Upload.S3.Endpoint,
		AccessKeyID:     cfg.Upload.S3.AccessKeyID,
		SecretAccessKey: cfg.Upload.S3.SecretAccessKey,
		UsePathStyle:    cfg.Upload.S3.UsePathStyle,
	}
	return upload.NewS3Store(upload.NewS3Client(s3cfg), s3cfg.Bucket, s3cfg.Prefix, cfg.Upload.MaxFileSize)
}
