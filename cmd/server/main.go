package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-accounts/internal/auth"
	"user-accounts/internal/config"
	apphttp "user-accounts/internal/http"
	"user-accounts/internal/repository"
	mongorepo "user-accounts/internal/repository/mongo"
	"user-accounts/internal/repository/sqlite"
	"user-accounts/internal/service"
	"user-accounts/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, archive, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	archives := repository.MultiArchive{}
	if cfg.Archive.Bucket != "" {
		mirror, err := buildArchiveMirror(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup archive mirror: %v", err)
		}
		archives = append(archives, mirror)
	}
	archives = append(archives, archive)

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.TokenTTL())
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}

	userService := service.NewUserService(users, archives, service.NewBcryptHasher(cfg.Auth.BcryptCost))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	handler := apphttp.NewHandler(userService, tokens, apphttp.Options{
		CookieSecure:   cfg.Auth.CookieSecure,
		AllowedOrigins: cfg.CORS.Origins,
		Logger:         logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.ArchiveRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := mongorepo.Connect(ctx, cfg.Database.MongoURI, cfg.Database.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("mongo disconnect: %v", err)
			}
		}
		users := mongorepo.NewUserRepository(db)
		if err := users.Init(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("init user repository: %w", err)
		}
		logger.Infof("using mongo database %s", cfg.Database.MongoDB)
		return users, mongorepo.NewArchiveRepository(db), closeFn, nil

	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Warnf("sqlite close: %v", err)
			}
		}
		users := sqlite.NewUserRepository(db)
		archive := sqlite.NewArchiveRepository(db)
		if err := users.Init(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("init user repository: %w", err)
		}
		if err := archive.Init(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("init archive repository: %w", err)
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return users, archive, closeFn, nil
	}
}

func buildArchiveMirror(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*storage.Archive, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Archive.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("mirroring removed users to s3 bucket %s (region %s)", cfg.Archive.Bucket, cfg.Archive.Region)
	return storage.NewArchive(storage.NewS3Service(client), storage.UploadOptions{
		Bucket:    cfg.Archive.Bucket,
		KeyPrefix: cfg.Archive.KeyPrefix,
	}), nil
}
