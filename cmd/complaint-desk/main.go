package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/complaint-desk/api/swagger"
	"github.com/noah-isme/complaint-desk/internal/access"
	"github.com/noah-isme/complaint-desk/internal/handler"
	internalmiddleware "github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/notify"
	"github.com/noah-isme/complaint-desk/internal/repository"
	"github.com/noah-isme/complaint-desk/internal/service"
	"github.com/noah-isme/complaint-desk/pkg/cache"
	"github.com/noah-isme/complaint-desk/pkg/config"
	"github.com/noah-isme/complaint-desk/pkg/database"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/jobs"
	"github.com/noah-isme/complaint-desk/pkg/logger"
	corsmiddleware "github.com/noah-isme/complaint-desk/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/complaint-desk/pkg/middleware/requestid"
	"github.com/noah-isme/complaint-desk/pkg/response"
	"github.com/noah-isme/complaint-desk/pkg/storage"
)

// @title Complaint Desk API
// @version 1.0.0
// @description Campus complaint intake, classification and staff triage
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open record store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	writer := jobs.NewQueue("store-writer", jobs.QueueConfig{Logger: logr})
	writer.Start(context.Background())
	defer writer.Stop()

	notifier, closeNotifier := openNotifier(cfg, logr)
	defer closeNotifier()

	metricsSvc := service.NewMetricsService()
	policy := access.NewRolePolicy(cfg.Bootstrap.SuperAdminID)

	accessCodeHash, err := service.ResolveAccessCodeHash(cfg.Bootstrap.AdminAccessCodeHash, cfg.Bootstrap.AdminAccessCode)
	if err != nil {
		logr.Sugar().Fatalw("invalid admin access code configuration", "error", err)
	}
	if accessCodeHash == "" {
		logr.Info("admin self-registration disabled; no access code configured")
	}

	complaintRepo := repository.NewComplaintRepository(store)
	authSvc := service.NewAuthService(service.AuthServiceParams{
		Accounts: repository.NewAccountRepository(store),
		Sessions: repository.NewSessionRepository(store),
		Writer:   writer,
		Policy:   policy,
		Metrics:  metricsSvc,
		Logger:   logr,
		Config: service.AuthConfig{
			TokenSecret: cfg.JWT.Secret,
			TokenExpiry: cfg.JWT.Expiration,
			Issuer:      "complaint-desk",
			SuperAdmin: models.Account{
				ID:         cfg.Bootstrap.SuperAdminID,
				Name:       cfg.Bootstrap.SuperAdminName,
				Email:      cfg.Bootstrap.SuperAdminEmail,
				Role:       models.RoleAdmin,
				Department: models.Department(cfg.Bootstrap.SuperAdminDepartment),
			},
			AdminAccessCodeHash: accessCodeHash,
		},
	})
	if err := authSvc.Bootstrap(ctx); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap accounts", "error", err)
	}

	complaintSvc := service.NewComplaintService(service.ComplaintServiceParams{
		Complaints: complaintRepo,
		Writer:     writer,
		Policy:     policy,
		Notifier:   notifier,
		Metrics:    metricsSvc,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(complaintSvc, service.ExportConfig{Enabled: cfg.Exports.Enabled}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, func(ctx context.Context) error {
		_, err := complaintRepo.List(ctx)
		return err
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	requireAuth := internalmiddleware.JWT(authSvc)
	can := func(caps ...access.Capability) gin.HandlerFunc {
		return internalmiddleware.RequireCapability(policy, caps...)
	}
	audit := func(action string) gin.HandlerFunc {
		return internalmiddleware.Audit(logr, action, "complaint")
	}

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.GET("/session", authHandler.Session)
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.GET("/me", requireAuth, authHandler.Me)

	api.POST("/admins", requireAuth, can(access.CapCreateAdmin), internalmiddleware.Audit(logr, "create", "admin"), authHandler.CreateAdmin)

	complaints := api.Group("/complaints", requireAuth)
	complaints.POST("/preview", can(access.CapSubmit), complaintHandler.Preview)
	complaints.POST("", can(access.CapSubmit), audit("submit"), complaintHandler.Submit)
	complaints.GET("/mine", can(access.CapViewOwn), complaintHandler.Mine)
	complaints.GET("/mine/stats", can(access.CapViewOwn), complaintHandler.MineStats)
	complaints.GET("", can(access.CapViewAll), complaintHandler.Queue)
	complaints.GET("/stats", can(access.CapViewAll), complaintHandler.Stats)
	complaints.GET("/export", can(access.CapViewAll), audit("export"), complaintHandler.Export)
	complaints.PATCH("/:id/status", can(access.CapTriage), audit("update_status"), complaintHandler.UpdateStatus)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.RecordStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		logr.Warn("memory record store selected; records are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case config.StoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
	case config.StoreFile, "":
		files, err := storage.NewLocalStorage(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFileStore(files), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openNotifier(cfg *config.Config, logr *zap.Logger) (notify.Notifier, func()) {
	if cfg.MQTT.Broker == "" {
		return notify.Nop{}, func() {}
	}
	client, err := notify.NewClient(cfg.MQTT)
	if err != nil {
		logr.Warn("mqtt broker unavailable; department notifications disabled", zap.Error(err))
		return notify.Nop{}, func() {}
	}
	return notify.NewMQTTNotifier(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, logr), client.Disconnect
}
