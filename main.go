package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bill-tracker/bootstrap"
	"bill-tracker/common"
	"bill-tracker/config"
	"bill-tracker/database"
	"bill-tracker/middleware"
	"bill-tracker/pkg/cache"
	"bill-tracker/pkg/email"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/metrics"
	"bill-tracker/pkg/upload"
	"bill-tracker/validator"

	activityAPI "bill-tracker/modules/activity/delivery/api"
	activityUC "bill-tracker/modules/activity/usecase"
	auditAPI "bill-tracker/modules/audit/delivery/api"
	auditUC "bill-tracker/modules/audit/usecase"
	authAPI "bill-tracker/modules/auth/delivery/api"
	authRepo "bill-tracker/modules/auth/repository"
	authUC "bill-tracker/modules/auth/usecase"
	authzAPI "bill-tracker/modules/authz/delivery/api"
	authzUC "bill-tracker/modules/authz/usecase"
	definitionAPI "bill-tracker/modules/definition/delivery/api"
	definitionUC "bill-tracker/modules/definition/usecase"
	healthAPI "bill-tracker/modules/health/delivery/api"
	healthRPC "bill-tracker/modules/health/delivery/rpc"
	healthUC "bill-tracker/modules/health/usecase"
	instanceAPI "bill-tracker/modules/instance/delivery/api"
	instanceUC "bill-tracker/modules/instance/usecase"
	rbacAPI "bill-tracker/modules/rbac/delivery/api"
	rbacUC "bill-tracker/modules/rbac/usecase"
	userAPI "bill-tracker/modules/user/delivery/api"
	userUC "bill-tracker/modules/user/usecase"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

const serviceName = "bill-tracker"

func main() {
	// Parse command line flags
	envPath := flag.String("env-file", "", "ENV config file path")
	yamlPath := flag.String("config", "./config/config.yml", "YAML config file path")
	flag.Parse()

	configPaths := []string{*yamlPath}
	if *envPath == "" {
		fmt.Printf("App is starting with config path is '%s' and no load env file\n", *yamlPath)
	} else {
		fmt.Printf("App is starting with config path is '%s' and env path is '%s'...\n", *yamlPath, *envPath)
		configPaths = append(configPaths, *envPath)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}
	if err = config.Validate(cfg); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	logger := newLogger(cfg)
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	loggerAdapter := common.NewLoggerAdapter(logger)
	common.SetLogger(loggerAdapter)
	log.SetDefaultLogger(logger)

	logger.Info("Application starting",
		log.String("name", cfg.App().Name()),
		log.String("version", cfg.App().Version()),
		log.String("environment", cfg.App().Environment()),
		log.String("backend", cfg.Backend().Provider()),
		log.String("config_path", *yamlPath),
	)

	ctx := context.Background()

	/****************************
	*     Backends and cache    *
	****************************/
	backends := bootstrap.Backends{
		Provider:    cfg.Backend().Provider(),
		Production:  cfg.App().IsProduction(),
		RedisPrefix: cfg.Redis().Prefix(),
	}

	if backends.Provider == config.BackendPostgres {
		backends.DB = connectPostgres(cfg, logger)
		defer closeDB(backends.DB, logger)
	}

	if backends.Provider == config.BackendRedis || cfg.Cache().Provider() == string(cache.Redis) {
		backends.Redis, err = database.ConnectRedis(ctx, cfg.Redis())
		if err != nil {
			logger.Fatal("Failed to connect to Redis", log.Error(err))
		}
		defer backends.Redis.Close()
		logger.Info("Redis connected", log.String("addr", cfg.Redis().Addr()))
	}

	repos, err := bootstrap.NewRepositories(backends)
	if err != nil {
		logger.Fatal("Failed to initialize repositories", log.Error(err))
	}

	cacheClient, err := cache.NewCacheFactory(loggerAdapter).CreateCache(
		cache.Provider(cfg.Cache().Provider()),
		&cache.Config{
			Host:       cfg.Redis().Host(),
			Port:       cfg.Redis().Port(),
			Password:   cfg.Redis().Password(),
			DB:         cfg.Redis().DB(),
			DefaultTTL: cfg.Cache().DefaultTTL(),
			KeyPrefix:  cfg.Redis().Prefix(),
		},
		backends.Redis,
	)
	if err != nil {
		logger.Fatal("Failed to create cache", log.Error(err))
	}
	defer cacheClient.Close()

	/****************************
	*      Outbound clients     *
	****************************/
	mailer, err := email.NewEmailFactory(loggerAdapter).CreateClient(ctx, email.Provider(cfg.Email().Provider()), &email.Config{
		DefaultFrom:         cfg.Email().DefaultFrom(),
		FromName:            cfg.Email().FromName(),
		SESRegion:           cfg.Email().SESRegion(),
		SESAccessKey:        cfg.Email().SESAccessKey(),
		SESSecretKey:        cfg.Email().SESSecretKey(),
		SESConfigurationSet: cfg.Email().SESConfigurationSet(),
		SendGridAPIKey:      cfg.Email().SendGridAPIKey(),
	})
	if err != nil {
		logger.Fatal("Failed to create email client", log.Error(err))
	}
	defer mailer.Close()

	uploader, err := upload.New(ctx, upload.Provider(cfg.Upload().Provider()), &upload.Config{
		LocalDir:      cfg.Upload().LocalDir(),
		PublicURL:     cfg.Upload().PublicURL(),
		MaxFileSize:   cfg.Upload().MaxFileSize(),
		S3AccessKey:   cfg.Upload().S3AccessKey(),
		S3SecretKey:   cfg.Upload().S3SecretKey(),
		S3EndpointURL: cfg.Upload().S3EndpointURL(),
		S3BucketName:  cfg.Upload().S3BucketName(),
		S3PathPrefix:  cfg.Upload().S3PathPrefix(),
		S3Region:      cfg.Upload().S3Region(),
	})
	if err != nil {
		logger.Fatal("Failed to create upload client", log.Error(err))
	}

	appMetrics := metrics.NewDefault()
	v := validator.DefaultValidator()
	hasher := common.NewBcryptHasher()

	/****************************
	*          Seeding          *
	****************************/
	seeder := bootstrap.NewSeeder(repos, hasher, bootstrap.OwnerConfig{
		Email:    cfg.App().OwnerEmail(),
		Password: cfg.App().OwnerPassword(),
		FullName: cfg.App().OwnerFullName(),
	}, logger)
	if err := seeder.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed initial data", log.Error(err))
	}

	/****************************
	*          Usecases         *
	****************************/
	auditUsecase := auditUC.NewAuditUsecase(repos.Audit, cfg.Audit(), mailer, appMetrics, v, logger)
	defer auditUsecase.Flush()

	authzUsecase := authzUC.NewAuthzUsecase(repos.Roles, repos.Permissions, cacheClient, cfg.Authz(), logger)
	authUsecase := authUC.NewAuthUsecase(
		repos.Users,
		authRepo.NewSessionCacheRepository(cacheClient),
		common.NewJWTProvider(cfg.App()),
		hasher,
		auditUsecase,
		v,
		logger,
	)
	permissionUsecase := rbacUC.NewPermissionUsecase(repos.Permissions, auditUsecase, authzUsecase, v, logger)
	roleUsecase := rbacUC.NewRoleUsecase(repos.Roles, repos.Permissions, auditUsecase, authzUsecase, v, logger)
	userUsecase := userUC.NewUserUsecase(repos.Users, repos.Roles, uploader, cfg.Upload().MaxFileSize(), auditUsecase, v, logger)
	activityUsecase := activityUC.NewActivityUsecase(repos.Activities, logger)
	definitionUsecase := definitionUC.NewDefinitionUsecase(repos.Definitions, repos.Instances, activityUsecase, v, logger)
	instanceUsecase := instanceUC.NewInstanceUsecase(repos.Instances, repos.Definitions, activityUsecase, v, logger)
	healthUsecase := healthUC.NewHealthUsecase(repos.Backend, []healthUC.Component{
		{Name: "backend", Pinger: healthUC.PingFunc(backends.Ping)},
		{Name: "cache", Pinger: cacheClient},
	}, 2*time.Second, logger)

	/****************************
	*        gRPC server        *
	****************************/
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthRPC.NewHealthRPC(healthUsecase, serviceName))
	go func() {
		lis, err := net.Listen("tcp", cfg.RPC().Address())
		if err != nil {
			logger.Fatal("Failed to listen on RPC port", log.Int("port", cfg.RPC().Port()), log.Error(err))
		}
		logger.Info("Starting gRPC server", log.String("address", cfg.RPC().Address()))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", log.Error(err))
		}
	}()

	/****************************
	*        HTTP server        *
	****************************/
	middlewares := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:   cacheClient,
		Logger:  logger,
		Metrics: appMetrics,
		Auth:    authUsecase,
		Authz:   authzUsecase,
		Guard: middleware.GuardConfig{
			LoginPath:  cfg.Authz().LoginPath(),
			HomePath:   cfg.Authz().HomePath(),
			RetryAfter: cfg.Authz().RetryAfter(),
		},
		Secure: middleware.SecureConfig{
			IsDevelopment: !cfg.App().IsProduction(),
			SSLRedirect:   cfg.App().IsProduction(),
		},
		RateLimit: middleware.RateLimitConfig{
			WindowSize:  cfg.Server().RateLimitWindow(),
			MaxRequests: int64(cfg.Server().RateLimitRequests()),
			KeyPrefix:   "api_rate_limit:",
		},
	})

	gin.DisableConsoleColor()
	gin.SetMode(lo.Ternary(cfg.App().IsProduction(), gin.ReleaseMode, gin.DebugMode))

	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggingMiddleware(middleware.LoggerConfig{SkipPaths: []string{"/health", "/metrics"}}))
	r.Use(middlewares.Recovery())
	r.Use(middlewares.Metrics())
	r.Use(middlewares.SecureHeaders())
	r.Use(middlewares.CORS(middleware.CORSConfig{
		AllowOrigins:     cfg.Server().AllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	healthAPI.NewHealthHandler(healthUsecase).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(appMetrics.Handler()))
	if upload.Provider(cfg.Upload().Provider()) == upload.Local {
		r.Static(upload.StaticsFsPath, cfg.Upload().LocalDir())
	}

	apiGroup := r.Group("/api/v1")
	apiGroup.Use(middlewares.RateLimit())
	authAPI.NewAuthHandler(authUsecase, middlewares).RegisterRoutes(apiGroup)
	authzAPI.NewAuthzHandler(authzUsecase, middlewares).RegisterRoutes(apiGroup)
	userAPI.NewUserHandler(userUsecase, middlewares).RegisterRoutes(apiGroup)
	rbacAPI.NewPermissionHandler(permissionUsecase, middlewares).RegisterRoutes(apiGroup)
	rbacAPI.NewRoleHandler(roleUsecase, middlewares).RegisterRoutes(apiGroup)
	auditAPI.NewAuditHandler(auditUsecase, middlewares).RegisterRoutes(apiGroup)
	definitionAPI.NewDefinitionHandler(definitionUsecase, middlewares).RegisterRoutes(apiGroup)
	instanceAPI.NewInstanceHandler(instanceUsecase, middlewares).RegisterRoutes(apiGroup)
	activityAPI.NewActivityHandler(activityUsecase, middlewares).RegisterRoutes(apiGroup)

	srv := &http.Server{
		Addr:           cfg.Server().Address(),
		Handler:        r,
		ReadTimeout:    cfg.Server().ReadTimeout(),
		WriteTimeout:   cfg.Server().WriteTimeout(),
		IdleTimeout:    cfg.Server().IdleTimeout(),
		MaxHeaderBytes: cfg.Server().MaxHeaderBytes(),
	}

	go func() {
		logger.Info("Starting HTTP server", log.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", log.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server().ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}
	grpcServer.GracefulStop()
}

func newLogger(cfg config.Config) log.Logger {
	lc := cfg.Logger()
	logger, err := log.NewZapLogger(log.Config{
		Level:            lc.Level(),
		Format:           lc.Format(),
		Environment:      lo.Ternary(cfg.App().IsProduction(), "production", "development"),
		ServiceName:      cfg.App().Name(),
		Version:          cfg.App().Version(),
		OutputPath:       lc.OutputPath(),
		FileMaxSizeInMB:  lc.MaxFileSizeMB(),
		FileMaxAgeInDays: lc.MaxFileAgeDays(),
		FileMaxBackups:   lc.MaxBackupFiles(),
		CompressRotated:  lc.IsCompressEnabled(),
	})
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	return logger
}

func connectPostgres(cfg config.Config, logger log.Logger) *gorm.DB {
	db, err := database.Connect(cfg.Database(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", log.Error(err))
	}
	if cfg.Database().AutoMigrate() {
		if err := database.MigrateDB(db); err != nil {
			logger.Fatal("Failed to migrate database", log.Error(err))
		}
		logger.Info("Database migrated")
	}
	logger.Info("Database connected")
	return db
}

func closeDB(db *gorm.DB, logger log.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", log.Error(err))
	}
}
