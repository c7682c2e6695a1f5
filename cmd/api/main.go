// @title Quiz Platform API
// @version 1.0
// @description Backend API for the quiz platform: authentication, quiz catalogue, attempts and leaderboards.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	"quizapp/internal/adapter"
	"quizapp/internal/cache"
	"quizapp/internal/config"
	"quizapp/internal/database"
	"quizapp/internal/handler"
	"quizapp/internal/logger"
	"quizapp/internal/middleware"
	"quizapp/internal/repository"
	"quizapp/internal/service"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Connect to Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")

	tokenStore := adapter.NewRedisTokenStore(redisClient)
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Initialize repositories
	txManager := repository.NewTransactionManagerAdapter(db)
	userRepository := repository.NewSQLXUserRepository(db)
	quizRepository := repository.NewSQLXQuizRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)

	// Initialize services
	tokenProvider := service.NewJWTTokenProvider(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, tokenStore)
	authService := service.NewAuthService(userRepository, tokenStore, tokenProvider)
	quizService := service.NewQuizService(quizRepository, txManager)
	attemptService := service.NewAttemptService(attemptRepository, quizRepository, txManager)
	userService := service.NewUserService(userRepository, attemptRepository, txManager)
	leaderboardService := service.NewLeaderboardService(attemptRepository, cacheAdapter)
	appLogger.Info("Services initialized")

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg)
	quizHandler := handler.NewQuizHandler(quizService)
	attemptHandler := handler.NewAttemptHandler(attemptService)
	userHandler := handler.NewUserHandler(userService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigin,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Skip-Refresh",
		ExposeHeaders:    "Authorization,Set-Cookie",
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	protected := middleware.Protected(tokenProvider, authService)
	adminOnly := middleware.AdminOnly()

	apiGroup := app.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/token/refresh", authHandler.Refresh)
	authGroup.Post("/logout", protected, authHandler.Logout)

	// User surface
	userGroup := apiGroup.Group("/users", protected)
	userGroup.Get("/me", userHandler.Profile)
	userGroup.Get("/me/stats", userHandler.Stats)
	userGroup.Delete("/me", userHandler.DeleteMe)

	// Quiz catalogue. Mutations are for administrators.
	quizGroup := apiGroup.Group("/quizzes", protected)
	quizGroup.Post("/create", adminOnly, quizHandler.CreateQuiz)
	quizGroup.Get("/", quizHandler.ListQuizzes)
	quizGroup.Get("/:quizId", quizHandler.GetQuiz)
	quizGroup.Put("/:quizId", adminOnly, quizHandler.UpdateQuiz)
	quizGroup.Delete("/:quizId", adminOnly, quizHandler.DeleteQuiz)
	quizGroup.Post("/:quizId/questions/add", adminOnly, quizHandler.AddQuestion)
	quizGroup.Get("/:quizId/questions", quizHandler.ListQuestions)
	quizGroup.Put("/:quizId/questions/:questionId", adminOnly, quizHandler.UpdateQuestion)
	quizGroup.Delete("/:quizId/questions/:questionId", adminOnly, quizHandler.DeleteQuestion)

	// Quiz attempts. The bulk and per-quiz routes come before the
	// :attemptId routes so their path segments are not taken for ids.
	attemptGroup := apiGroup.Group("/attempts", protected)
	attemptGroup.Post("/start", attemptHandler.Start)
	attemptGroup.Get("/resume/:quizId", attemptHandler.Resume)
	attemptGroup.Post("/start-or-resume", attemptHandler.StartOrResume)
	attemptGroup.Post("/end", attemptHandler.End)
	attemptGroup.Post("/end-and-start", attemptHandler.EndAndStart)
	attemptGroup.Post("/:attemptId/submit", attemptHandler.Submit)
	attemptGroup.Get("/user", attemptHandler.ListMine)
	attemptGroup.Get("/user/quiz/:quizId", attemptHandler.ListMineByQuiz)
	attemptGroup.Delete("/user", attemptHandler.DeleteAll)
	attemptGroup.Delete("/user/bulk", attemptHandler.DeleteMany)
	attemptGroup.Get("/user/:attemptId", attemptHandler.GetMine)
	attemptGroup.Delete("/user/:attemptId", attemptHandler.DeleteOne)

	// Leaderboards
	leaderboardGroup := apiGroup.Group("/leaderboard", protected)
	leaderboardGroup.Get("/", leaderboardHandler.Global)
	leaderboardGroup.Get("/quiz/:quizId", leaderboardHandler.ByQuiz)

	// Admin user management
	adminGroup := apiGroup.Group("/admin", protected, adminOnly)
	adminGroup.Get("/users", userHandler.ListUsers)
	adminGroup.Get("/users/admins", userHandler.ListAdmins)
	adminGroup.Get("/users/details", userHandler.UserDetails)
	adminGroup.Get("/users/:username", userHandler.GetUser)
	adminGroup.Patch("/users/:username/status", userHandler.UpdateUserStatus)
	adminGroup.Delete("/users/:username", userHandler.DeleteUser)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
