package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photon/internal/config"
	"photon/internal/handler"
	"photon/internal/repository"
	"photon/internal/service"
	"photon/internal/storage"
	"photon/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Server.Production() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

type repositories struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	saved    repository.SavedPostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*repositories, error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory database, data is lost on restart")
		store := repository.NewMemoryStore()
		return &repositories{
			users:    store.Users(),
			profiles: store.Profiles(),
			posts:    store.Posts(),
			saved:    store.SavedPosts(),
			comments: store.Comments(),
			follows:  store.Follows(),
		}, nil
	}

	client, err := kivik.New("couch", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, cfg.Name); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		logger.Info("created database", zap.String("name", cfg.Name))
	}

	if err := repository.EnsureIndexes(ctx, client, cfg.Name); err != nil {
		return nil, err
	}

	logger.Info("connected to CouchDB", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
	return &repositories{
		users:    repository.NewUserRepository(client, cfg.Name),
		profiles: repository.NewProfileRepository(client, cfg.Name),
		posts:    repository.NewPostRepository(client, cfg.Name),
		saved:    repository.NewSavedPostRepository(client, cfg.Name),
		comments: repository.NewCommentRepository(client, cfg.Name),
		follows:  repository.NewFollowRepository(client, cfg.Name),
	}, nil
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	repos, err := openRepositories(setupCtx, cfg.Database, logger)
	cancel()
	if err != nil {
		return err
	}

	var (
		images storage.ImageStore
		media  *handler.MediaHandler
	)
	if cfg.Storage.UseS3() {
		images = storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
			Prefix:          cfg.Storage.Prefix,
			PublicURL:       cfg.Storage.PublicURL,
			MaxSize:         cfg.Storage.MaxUploadSize,
		})
		logger.Info("storing images in S3", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		mem := storage.NewMemoryStore("/media", cfg.Storage.MaxUploadSize)
		images = mem
		media = handler.NewMediaHandler(mem)
		logger.Warn("storing images in memory")
	}

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, logger)
	go wsManager.Run(ctx)

	authService := service.NewAuthService(repos.users, repos.profiles, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	profileService := service.NewProfileService(repos.users, repos.profiles, repos.posts, repos.follows, wsManager)
	followService := service.NewFollowService(repos.follows, repos.users, wsManager)
	postService := service.NewPostService(repos.posts, repos.saved, repos.users, images, wsManager)
	commentService := service.NewCommentService(repos.comments, repos.posts, repos.users, wsManager)

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	router := handler.NewRouter(handler.Routes{
		Auth:      handler.NewAuthHandler(authService, cfg.Server.Production(), logger),
		Profile:   handler.NewProfileHandler(profileService, followService, logger),
		Post:      handler.NewPostHandler(postService, cfg.Storage.MaxUploadSize+(1<<20), logger),
		Comment:   handler.NewCommentHandler(commentService, logger),
		WebSocket: handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, logger),
		Media:     media,
		JWTSecret: cfg.JWT.Secret,
		CORS: handler.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
		},
		Logger:   logger,
		Registry: registry,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting Photon server", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
