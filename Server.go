package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"threadhive/composer"
	"threadhive/controllers"
	"threadhive/database"
	"threadhive/feed"
	"threadhive/intializers"
	"threadhive/listing"
	"threadhive/metrics"
	"threadhive/routes"
	"threadhive/social"
	"threadhive/storage"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       string
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			intializers.LoadEnvVariables()

			cfg, err := intializers.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := intializers.NewLogger(cfg)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func serve(ctx context.Context, cfg intializers.Config, logger *slog.Logger) error {
	var mongoClient *mongo.Client
	if cfg.Store == intializers.StoreMongo || cfg.Blob == intializers.BlobGridFS {
		client, err := database.DBinstance(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		mongoClient = client
	}

	var store database.Store
	switch cfg.Store {
	case intializers.StoreMongo:
		store = database.NewMongoStore(mongoClient.Database(cfg.DBName))
	case intializers.StorePostgres:
		pg, err := database.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
	default:
		store = database.NewMemoryStore()
	}

	var blobs storage.Store
	switch cfg.Blob {
	case intializers.BlobGridFS:
		gfs, err := storage.NewGridFSStore(mongoClient.Database(cfg.DBName), cfg.HostName)
		if err != nil {
			return err
		}
		blobs = gfs
	case intializers.BlobS3:
		s3, err := storage.NewS3Store(cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return err
		}
		blobs = s3
	default:
		blobs = storage.NewMemoryStore(cfg.HostName)
	}

	m := metrics.New()
	limits := composer.Limits{MaxFiles: cfg.MaxFiles, MaxFileSize: cfg.MaxFileSize}
	graph := social.NewGraph(store, logger, m)

	ctl := &controllers.Controller{
		Store:  store,
		Blobs:  blobs,
		Graph:  graph,
		Lists:  listing.NewAssembler(store, graph, logger, m),
		Drafts: composer.NewDrafts(composer.Deps{
			Store:   store,
			Blobs:   blobs,
			Logger:  logger,
			Metrics: m,
			Limits:  limits,
		}),
		Feed:           feed.New(store, logger),
		Logger:         logger,
		Secret:         []byte(cfg.SecretKey),
		Limits:         limits,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(ctl, m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.Store, "blob", cfg.Blob)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
