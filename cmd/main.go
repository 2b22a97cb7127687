package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lshigami/tutorlab/config"
	_ "github.com/lshigami/tutorlab/docs" // Swagger docs - generated by swag init
	adminctrl "github.com/lshigami/tutorlab/internal/controller/admin"
	userctrl "github.com/lshigami/tutorlab/internal/controller/user"
	"github.com/lshigami/tutorlab/internal/database"
	"github.com/lshigami/tutorlab/internal/logger"
	"github.com/lshigami/tutorlab/internal/middleware"
	"github.com/lshigami/tutorlab/internal/repository"
	"github.com/lshigami/tutorlab/internal/service"
)

// @title Tutorlab Test Execution API
// @version 1.0
// @description Question bank, test plans and timed test executions with automatic grading.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init("info") // reconfigured from LOG_LEVEL once config is loaded

	app := fx.New(
		// Core components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // *gorm.DB
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewQuestionRepository,
			repository.NewTestPlanRepository,
			repository.NewTestExecutionRepository,
		),

		// Services
		fx.Provide(
			service.NewGeminiLLMService, // disabled without GEMINI_API_KEY
			service.NewQuestionService,
			service.NewTestPlanService,
			service.NewExecutionService,
		),

		// HTTP layer
		fx.Provide(
			func(cfg *config.Config) *middleware.AuthMiddleware {
				return middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
			},
			adminctrl.NewQuestionController,
			userctrl.NewPlanController,
			userctrl.NewExecutionController,
		),

		// Startup, in order
		fx.Invoke(func(cfg *config.Config) { logger.Init(cfg.LogLevel) }),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	return r
}

// RegisterRoutesAndStartServer mounts every controller under /api/v1 behind
// bearer authentication and ties the HTTP server to the fx lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *middleware.AuthMiddleware,
	questionCtrl *adminctrl.QuestionController,
	planCtrl *userctrl.PlanController,
	executionCtrl *userctrl.ExecutionController,
) {
	apiV1 := router.Group("/api/v1", auth.RequireAuth())
	questionCtrl.RegisterRoutes(apiV1)
	planCtrl.RegisterRoutes(apiV1)
	executionCtrl.RegisterRoutes(apiV1)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Test execution API starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.AutoMigrate(db)
}
