// @title Staff Quiz API
// @version 1.0
// @description Restaurant staff training quizzes: attempts, progress coverage and score reporting.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
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

	"staff-quiz/internal/adapter"
	"staff-quiz/internal/adapter/notifier"
	"staff-quiz/internal/cache"
	"staff-quiz/internal/config"
	"staff-quiz/internal/database"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/handler"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/middleware"
	"staff-quiz/internal/repository"
	"staff-quiz/internal/service"
	"staff-quiz/internal/util"

	_ "staff-quiz/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
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

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.RunMigrations(context.Background(), db)
	if err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}
	appLogger.Info("Database schema up to date", zap.Int("applied", len(applied)))

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis")

	var trainingNotifier domain.TrainingNotifier = notifier.NoopNotifier{}
	if cfg.Notifier.AMQPURL != "" {
		amqpNotifier, err := notifier.DialAMQPNotifier(cfg.Notifier)
		if err != nil {
			appLogger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer amqpNotifier.Close()
		trainingNotifier = amqpNotifier
		appLogger.Info("Attempt events will be published", zap.String("exchange", cfg.Notifier.Exchange))
	} else {
		appLogger.Warn("Notifier is not configured. Attempt events will not be published.")
	}

	// Repositories
	quizRepo := repository.NewSQLXQuizRepository(db)
	questionRepo := repository.NewSQLXQuestionRepository(db)
	staffRepo := repository.NewSQLXStaffRepository(db)
	attemptRepo := repository.NewSQLXAttemptRepository(db)
	progressRepo := repository.NewSQLXProgressRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	sessionStore := adapter.NewRedisSessionStore(redisClient)

	seed := cfg.Training.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := util.SystemClock{}

	// Services
	tokenService, err := service.NewTokenService(cfg.JWT, clock)
	if err != nil {
		appLogger.Fatal("Failed to create TokenService", zap.Error(err))
	}
	questionSource := service.NewQuestionSource(questionRepo, cacheAdapter, cfg.Training.PoolCacheTTL)
	tracker := service.NewProgressTracker(progressRepo, questionSource, util.NewLockedRand(seed))
	recorder := service.NewAttemptRecorder(service.AttemptRecorderDeps{
		Quizzes:   quizRepo,
		Questions: questionRepo,
		Staff:     staffRepo,
		Attempts:  attemptRepo,
		Progress:  progressRepo,
		Tx:        txManager,
		Tracker:   tracker,
		Gate:      service.NewCooldownGate(attemptRepo),
		Source:    questionSource,
		Sessions:  sessionStore,
		Cache:     cacheAdapter,
		Tokens:    tokenService,
		Notifier:  trainingNotifier,
		Clock:     clock,
	}, cfg.Training)
	scores := service.NewScoreAggregator(quizRepo, staffRepo, attemptRepo, progressRepo)
	quizAdmin := service.NewQuizAdmin(quizRepo, questionSource, clock)

	// Handlers
	trainingHandler := handler.NewTrainingHandler(recorder, scores)
	quizAdminHandler := handler.NewQuizAdminHandler(quizAdmin, recorder)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"oracle": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})
	validationMiddleware := middleware.NewValidationMiddleware()

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", healthHandler.Health)

	apiGroup := app.Group("/api", middleware.Protected(tokenService))

	// Staff routes
	apiGroup.Post("/quizzes/:quizId/attempts", validationMiddleware.ValidateIDParams("quizId"), trainingHandler.StartAttempt)
	apiGroup.Post("/quizzes/:quizId/submit", validationMiddleware.ValidateIDParams("quizId"), trainingHandler.SubmitByQuiz)
	apiGroup.Post("/attempts/:token/submit", trainingHandler.SubmitAttempt)
	apiGroup.Get("/staff/:staffId/progress", validationMiddleware.ValidateIDParams("staffId"), trainingHandler.GetStaffProgress)
	apiGroup.Get("/staff/:staffId/average", validationMiddleware.ValidateIDParams("staffId"), trainingHandler.GetStaffAverage)
	apiGroup.Get("/staff/:staffId/quizzes/:quizId", validationMiddleware.ValidateIDParams("staffId", "quizId"), trainingHandler.GetStaffQuizSummary)
	apiGroup.Get("/staff/:staffId/attempts", validationMiddleware.ValidateIDParams("staffId"), trainingHandler.GetStaffAttempts)

	// Manager routes
	apiGroup.Get("/restaurant/rollup", middleware.RequireManager(), trainingHandler.GetRestaurantRollup)
	apiGroup.Post("/quizzes", middleware.RequireManager(), quizAdminHandler.CreateQuiz)
	apiGroup.Delete("/quizzes/:quizId", middleware.RequireManager(), validationMiddleware.ValidateIDParams("quizId"), quizAdminHandler.DeleteQuiz)
	apiGroup.Post("/quizzes/:quizId/resnapshot", middleware.RequireManager(), validationMiddleware.ValidateIDParams("quizId"), quizAdminHandler.ResnapshotQuiz)
	apiGroup.Put("/quizzes/:quizId/availability", middleware.RequireManager(), validationMiddleware.ValidateIDParams("quizId"), quizAdminHandler.SetAvailability)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
