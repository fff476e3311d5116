package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-api/api/swagger"
	"github.com/noah-isme/lms-api/internal/handler"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/cache"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/database"
	"github.com/noah-isme/lms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-api/pkg/middleware/requestid"
	"github.com/noah-isme/lms-api/pkg/ratelimit"
)

// @title LMS API
// @version 1.0.0
// @description Course management API with role-permission authorization and audit logging
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	auditSvc := service.NewAuditService(auditRepo, userRepo, metricsSvc, logr)
	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AllowedRoles:      cfg.Auth.AllowedRoles,
	})
	authzSvc := service.NewAuthzService(roleRepo, logr)
	courseSvc := service.NewCourseService(courseRepo, auditSvc, validate, logr)

	// Registry bootstrap runs on every start; all seed writes are upserts.
	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := authzSvc.Seed(seedCtx); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to seed role-permission registry", "error", err)
	}
	cancel()

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	roleHandler := handler.NewRoleHandler(authzSvc, auditSvc, logr)
	auditHandler := handler.NewAuditHandler(auditSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var limiter *ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Window)
	}
	quota := func(route string, perWindow int) gin.HandlerFunc {
		return middleware.RateLimit(limiter, metricsSvc, logr, route, perWindow)
	}

	authenticate := middleware.JWT(authSvc)
	if cfg.Auth.Mode == config.AuthModeBasic {
		authenticate = middleware.BasicAuth(authSvc)
	}
	logr.Info("authentication configured", zap.String("mode", cfg.Auth.Mode))

	authzOpts := middleware.AuthzOptions{
		ExposeDeniedPermission: cfg.Authz.ExposeDeniedPermission,
		Metrics:                metricsSvc,
	}
	requirePermission := func(permission string) gin.HandlerFunc {
		return middleware.RequirePermission(authzSvc, permission, authzOpts)
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", quota("auth_register", cfg.RateLimit.AuthPerWindow), authHandler.Register)
	auth.POST("/login", quota("auth_login", cfg.RateLimit.AuthPerWindow), authHandler.Login)

	courses := api.Group("/courses", authenticate)
	courses.GET("",
		quota("course_list", cfg.RateLimit.ListPerWindow),
		requirePermission(models.PermViewCourses),
		middleware.Audit(auditSvc, logr, models.AuditActionCourseList),
		courseHandler.List,
	)
	courses.GET("/:id",
		quota("course_get", cfg.RateLimit.GetPerWindow),
		requirePermission(models.PermViewCourse),
		middleware.Audit(auditSvc, logr, models.AuditActionCourseView),
		courseHandler.Get,
	)
	courses.POST("",
		quota("course_create", cfg.RateLimit.CreatePerWindow),
		requirePermission(models.PermCreateCourse),
		courseHandler.Create,
	)
	courses.PUT("/:id",
		quota("course_update", cfg.RateLimit.UpdatePerWindow),
		requirePermission(models.PermUpdateCourse),
		courseHandler.Update,
	)
	courses.DELETE("/:id",
		quota("course_delete", cfg.RateLimit.DeletePerWindow),
		requirePermission(models.PermDeleteCourse),
		courseHandler.Delete,
	)

	admin := api.Group("", authenticate, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/roles", roleHandler.List)
	admin.GET("/roles/:name/permissions", roleHandler.Permissions)
	admin.POST("/roles/:name/permissions", roleHandler.Grant)
	admin.DELETE("/roles/:name/permissions/:permission", roleHandler.Revoke)
	admin.GET("/audit-logs", auditHandler.List)
	admin.GET("/audit-logs/export", auditHandler.Export)
	admin.GET("/audit-logs/:id", auditHandler.Get)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
