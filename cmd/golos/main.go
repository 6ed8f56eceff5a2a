package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/rx3lixir/golos/internal/config"
	"github.com/rx3lixir/golos/internal/content"
	"github.com/rx3lixir/golos/internal/db"
	httpserver "github.com/rx3lixir/golos/internal/http-server"
	"github.com/rx3lixir/golos/internal/notify"
	"github.com/rx3lixir/golos/internal/session"
	"github.com/rx3lixir/golos/pkg/jwt"
	"github.com/rx3lixir/golos/pkg/s3storage"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the yaml config file")
	flag.Parse()

	// Setting up logger
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           log.InfoLevel,
	})

	// Initializing global context instance
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initializing config manager
	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		logger.Error("Error getting config file", "error", err, "path", *configPath)
		os.Exit(1)
	}

	c := cm.GetConfig()

	// Validating configuration
	if err := c.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	level, err := log.ParseLevel(c.GeneralParams.LogLevel)
	if err != nil {
		logger.Error("Invalid log level", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(level)

	logger.Info(
		"Configuration loaded",
		"env", c.GeneralParams.Env,
		"http_addr", c.GeneralParams.HTTPaddress,
		"database", c.MainDBParams.Name,
		"auth", c.AuthDBParams.Host,
	)

	// Applying schema migrations before anything touches the tables
	if err := db.Migrate(c.MainDBParams.GetMigrateURL(), logger); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Creating database connection pool
	pool, err := db.CreatePostgresPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		logger.Error(
			"Failed to create postgres pool",
			"error", err,
			"db", c.MainDBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("Database connection established", "db", c.MainDBParams.Name, "host", c.MainDBParams.Host)

	// Creates database store
	store := db.NewPostgresStore(pool)

	// Initializing JWT service
	jwtService := jwt.NewService(
		c.GeneralParams.SecretKey,
		c.GeneralParams.AccessTokenTTL,
		c.GeneralParams.RefreshTokenTTL,
	)

	logger.Info("JWT service initialized")

	// Initialize Key-value storage, shared by sessions and the delivery channel
	valkeyClient, err := session.NewClient(
		c.AuthDBParams.Host,
		c.AuthDBParams.Username,
		c.AuthDBParams.Password,
	)
	if err != nil {
		logger.Error("Failed to connect to valkey", "error", err)
		os.Exit(1)
	}

	sessionManager := session.NewManager(valkeyClient)
	defer sessionManager.Close()

	publisher := notify.NewPublisher(valkeyClient)

	logger.Info("Key-Value session manager initialized")

	// Initialize S3 client
	s3Client, err := s3storage.NewMinIOClient(
		c.S3Params.Endpoint,
		c.S3Params.AccessKeyID,
		c.S3Params.SecretAccessKey,
		s3storage.Buckets{
			s3storage.KindRecording: c.S3Params.RecordingsBucket,
			s3storage.KindVoice:     c.S3Params.VoicesBucket,
			s3storage.KindPhoto:     c.S3Params.PhotosBucket,
		},
		c.S3Params.UseSSL,
	)
	if err != nil {
		logger.Error("Failed to create S3 client", "error", err)
		os.Exit(1)
	}

	logger.Info(
		"S3 storage client initialized",
		"recordings", c.S3Params.RecordingsBucket,
		"voices", c.S3Params.VoicesBucket,
		"photos", c.S3Params.PhotosBucket,
	)

	svc := content.New(content.Deps{
		Store:     store,
		Blobs:     s3Client,
		Sink:      publisher,
		UserCache: content.NewUserCache(c.CacheParams.UserCacheSize, c.CacheParams.UserCacheTTL),
		Logger:    logger,
	})

	// Creates HTTP server
	HTTPserver := httpserver.New(
		c.GeneralParams.HTTPaddress,
		svc,
		jwtService,
		sessionManager,
		logger,
	)
	HTTPserver.AddCheck("postgres", pool.Ping)
	HTTPserver.AddCheck("s3", s3Client.Ping)
	HTTPserver.AddCheck("valkey", func(ctx context.Context) error {
		return valkeyClient.Do(ctx, valkeyClient.B().Ping().Build()).Error()
	})

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- HTTPserver.Start()
	}()

	logger.Info("Server started", "addr", c.GeneralParams.HTTPaddress)

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we recieve a signal or error
	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), c.GeneralParams.ShutdownTimeout)
		defer cancel()

		logger.Info("Shutting down HTTP server...")
		if err := HTTPserver.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}

		// Let in-flight delivery signals finish before valkey is closed
		svc.Notifier().Wait()

		logger.Info("Server stopped gracefully")
	}
}
