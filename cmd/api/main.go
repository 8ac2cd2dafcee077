package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/dto"
	"github.com/skillmatch-hu/skillmatch-api/internal/handler"
	"github.com/skillmatch-hu/skillmatch-api/internal/middleware"
	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/internal/repository"
	"github.com/skillmatch-hu/skillmatch-api/internal/service"
	"github.com/skillmatch-hu/skillmatch-api/pkg/cache"
	"github.com/skillmatch-hu/skillmatch-api/pkg/config"
	"github.com/skillmatch-hu/skillmatch-api/pkg/logger"
	corsmiddleware "github.com/skillmatch-hu/skillmatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/skillmatch-hu/skillmatch-api/pkg/middleware/requestid"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(); err != nil {
		logr.Fatal("validator registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := typedb.NewSession(typedb.Config{
		Addr:            cfg.TypeDB.ServerAddr,
		Database:        cfg.TypeDB.Name,
		Username:        cfg.TypeDB.Username,
		DefaultPassword: cfg.TypeDB.DefaultPassword,
		NewPassword:     cfg.TypeDB.NewPassword,
		Reset:           cfg.TypeDB.ResetDB,
		MaxAttempts:     cfg.TypeDB.MaxAttempts,
		InitialDelay:    cfg.TypeDB.InitialDelay,
	}, logr)
	if err := session.Connect(ctx); err != nil {
		logr.Fatal("typedb connection failed", zap.Error(err))
	}
	defer session.Close() //nolint:errcheck
	if err := session.EnsureDatabase(ctx); err != nil {
		logr.Fatal("database bootstrap failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	businessRepo := repository.NewBusinessRepository(session)
	projectRepo := repository.NewProjectRepository(session)
	taskRepo := repository.NewTaskRepository(session)
	userRepo := repository.NewUserRepository(session)
	skillRepo := repository.NewSkillRepository(session)
	registrationRepo := repository.NewRegistrationRepository(session)
	requestRepo := repository.NewStatusRequestRepository(session)
	inviteRepo := repository.NewInviteRepository(session)
	portfolioRepo := repository.NewPortfolioRepository(session)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, inviteRepo, cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.Invite.TTL, logr)
	catalogService := service.NewCatalogService(businessRepo, projectRepo, taskRepo, skillRepo, logr)
	registrationService := service.NewRegistrationService(registrationRepo, taskRepo, logr)
	consensusService := service.NewConsensusService(registrationRepo, requestRepo, logr)
	portfolioService := service.NewPortfolioService(portfolioRepo, projectRepo, redisClient, cfg.Redis.CacheTTL, metricsService, logr)

	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	consensusHandler := handler.NewConsensusHandler(consensusService, authService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)
	metricsHandler := handler.NewMetricsHandler(metricsService, session.Ping)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register/student", authHandler.RegisterStudent)
	auth.POST("/register/invite", authHandler.RegisterWithInvite)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.GET("/me", authHandler.Me)
	authed.POST("/invites", middleware.RequireRoles(models.RoleTeacher), authHandler.IssueInvite)

	authed.GET("/businesses", catalogHandler.ListBusinesses)
	authed.GET("/businesses/:id", catalogHandler.GetBusiness)
	authed.POST("/businesses", middleware.RequireRoles(models.RoleTeacher), catalogHandler.CreateBusiness)
	authed.PATCH("/businesses/:id/archive", middleware.RequireRoles(models.RoleTeacher), catalogHandler.ArchiveBusiness)

	authed.GET("/projects", catalogHandler.ListProjects)
	authed.GET("/projects/:id", catalogHandler.GetProject)
	authed.GET("/projects/:id/tasks", catalogHandler.ListTasksByProject)
	authed.POST("/projects", middleware.RequireRoles(models.RoleSupervisor, models.RoleTeacher), catalogHandler.CreateProject)
	authed.PATCH("/projects/:id/archive", middleware.RequireRoles(models.RoleSupervisor, models.RoleTeacher), catalogHandler.ArchiveProject)
	authed.DELETE("/projects/:id", middleware.RequireRoles(models.RoleTeacher), portfolioHandler.DeleteProject)

	authed.GET("/tasks/:id", catalogHandler.GetTask)
	authed.POST("/tasks", middleware.RequireRoles(models.RoleSupervisor, models.RoleTeacher), catalogHandler.CreateTask)
	authed.GET("/tasks/:id/registrations", middleware.RequireRoles(models.RoleSupervisor, models.RoleTeacher), registrationHandler.ListForTask)
	authed.POST("/tasks/:id/registrations/:studentId/decide", middleware.RequireRoles(models.RoleSupervisor), registrationHandler.Decide)
	authed.POST("/tasks/:id/start", middleware.RequireRoles(models.RoleStudent), registrationHandler.Start)

	authed.GET("/skills", catalogHandler.ListSkills)
	authed.POST("/skills", catalogHandler.ProposeSkill)
	authed.PATCH("/skills/:id/approve", middleware.RequireRoles(models.RoleTeacher), catalogHandler.ApproveSkill)
	authed.GET("/themes", catalogHandler.ListThemes)

	authed.POST("/registrations", middleware.RequireRoles(models.RoleStudent), registrationHandler.Create)
	authed.GET("/registrations", middleware.RequireRoles(models.RoleStudent), registrationHandler.ListForStudent)

	authed.POST("/status-requests", consensusHandler.Create)
	authed.POST("/status-requests/:id/respond", consensusHandler.Respond)
	authed.GET("/status-requests/pending", consensusHandler.Pending)

	authed.GET("/students/:id/portfolio", middleware.RBAC(string(models.RoleTeacher), string(models.RoleSupervisor), "SELF"), portfolioHandler.Get)
	authed.GET("/students/:id/portfolio/export", middleware.RBAC(string(models.RoleTeacher), "SELF"), portfolioHandler.Export)
	authed.DELETE("/portfolio/snapshots/:id", middleware.RequireRoles(models.RoleStudent), portfolioHandler.DeleteSnapshot)
	authed.DELETE("/portfolio/snapshots", middleware.RequireRoles(models.RoleStudent), portfolioHandler.DeleteAllSnapshots)

	var sweeper *cron.Cron
	if cfg.Sweeps.Enabled {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Sweeps.Schedule, func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			created, err := consensusService.CheckAndCreateEndReviews(sweepCtx)
			if err != nil {
				logr.Error("end review sweep failed", zap.Error(err))
			}
			metricsService.CountEndReviews(created)

			approved, err := consensusService.AutoApproveExpired(sweepCtx)
			if err != nil {
				logr.Error("auto approve sweep failed", zap.Error(err))
			}
			metricsService.CountAutoApprovals(approved)
		})
		if err != nil {
			logr.Fatal("invalid sweep schedule", zap.String("schedule", cfg.Sweeps.Schedule), zap.Error(err))
		}
		sweeper.Start()
		logr.Info("consensus sweeps scheduled", zap.String("schedule", cfg.Sweeps.Schedule))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown incomplete", zap.Error(err))
	}
}
