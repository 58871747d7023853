package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowboard/backend/config"
	"github.com/flowboard/backend/internal/activity"
	"github.com/flowboard/backend/internal/admin"
	"github.com/flowboard/backend/internal/auth"
	"github.com/flowboard/backend/internal/boards"
	"github.com/flowboard/backend/internal/companies"
	"github.com/flowboard/backend/internal/middleware"
	"github.com/flowboard/backend/internal/policy"
	"github.com/flowboard/backend/internal/realtime"
	"github.com/flowboard/backend/internal/tasks"
	"github.com/flowboard/backend/pkg/database"
	"github.com/flowboard/backend/pkg/redis"
	"github.com/flowboard/backend/pkg/response"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	cancel()
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, pool); err != nil {
		cancel()
		logger.Fatal("run migrations", zap.Error(err))
	}
	cancel()
	logger.Info("migrations applied")

	// Redis powers the cross-instance board event fan-out. A single instance
	// still works without it.
	var pubsub *realtime.RedisPubSub
	redisCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := redis.NewClient(redisCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	cancel()
	if err != nil {
		logger.Warn("redis unavailable, board events stay local", zap.Error(err))
	} else {
		defer redisClient.Close()
		pubsub = realtime.NewRedisPubSub(redisClient.Client, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireDays)

	userRepo := auth.NewRepository(pool)
	companyRepo := companies.NewRepository(pool)
	boardRepo := boards.NewRepository(pool)
	taskRepo := tasks.NewRepository(pool)
	activityRepo := activity.NewRepository(pool)

	var hub *realtime.Hub
	if pubsub != nil {
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	authHandler := auth.NewHandler(userRepo, companyRepo, jwtService, cfg.Admin.Secret, logger)
	boardHandler := boards.NewHandler(boardRepo, userRepo, companyRepo, hub, logger)
	taskHandler := tasks.NewHandler(taskRepo, boardRepo, activityRepo, hub, logger)
	adminHandler := admin.NewHandler(userRepo, cfg.Admin.Secret, logger)

	// WebSocket viewers pass the same read policy as GET /boards/:id.
	authorize := func(token string, boardID uuid.UUID) (uuid.UUID, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		userID, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			return uuid.Nil, err
		}
		board, err := boardRepo.GetByID(ctx, boardID)
		if err != nil {
			return uuid.Nil, err
		}
		hasTask, err := boardRepo.HasAssignedTask(ctx, board.ID, board.CompanyID, user.Name)
		if err != nil {
			return uuid.Nil, err
		}
		if !policy.CanReadBoard(user, board, hasTask) {
			return uuid.Nil, errors.New("board access denied")
		}
		return user.ID, nil
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.OK(c, gin.H{"status": "ok", "time": time.Now().UTC()})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/companies", authHandler.ListCompanies)
			authGroup.POST("/set-admin", authHandler.SetAdmin)

			protected := authGroup.Group("")
			protected.Use(middleware.Auth(jwtService, userRepo))
			{
				protected.GET("/me", authHandler.Me)
				protected.GET("/users", authHandler.ListCompanyUsers)
				protected.POST("/promote-user/:userId", authHandler.Promote)
				protected.POST("/demote-user/:userId", authHandler.Demote)
			}
		}

		boardGroup := api.Group("/boards")
		boardGroup.Use(middleware.Auth(jwtService, userRepo))
		{
			boardGroup.GET("", boardHandler.List)
			boardGroup.POST("", boardHandler.Create)
			boardGroup.GET("/:id", boardHandler.Get)
			boardGroup.PUT("/:id", boardHandler.Update)
			boardGroup.DELETE("/:id", boardHandler.Delete)
			boardGroup.POST("/:id/sections", boardHandler.AddSection)
			boardGroup.PUT("/:id/sections/:sectionId", boardHandler.UpdateSection)
			boardGroup.DELETE("/:id/sections/:sectionId", boardHandler.DeleteSection)
		}

		taskGroup := api.Group("/tasks")
		taskGroup.Use(middleware.Auth(jwtService, userRepo))
		{
			// The :id of the collection GET is a board id, matching the
			// frontend contract. Gin needs one wildcard name per segment.
			taskGroup.GET("/:id", taskHandler.ListByBoard)
			taskGroup.POST("", taskHandler.Create)
			taskGroup.PUT("/:id", taskHandler.Update)
			taskGroup.DELETE("/:id", taskHandler.Delete)
			taskGroup.GET("/:id/activity", taskHandler.Activity)
		}

		adminGroup := api.Group("/admin")
		adminGroup.Use(adminHandler.RequireSecret())
		{
			adminGroup.POST("/verify-secret", adminHandler.VerifySecret)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.POST("/set-admin/:userId", adminHandler.SetAdmin)
			adminGroup.POST("/remove-admin/:userId", adminHandler.RemoveAdmin)
		}
	}

	router.GET("/ws", realtime.ServeWs(hub, logger, authorize))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
