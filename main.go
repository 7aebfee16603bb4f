package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"mc-challenge-system/handlers"
	"mc-challenge-system/middleware"
	"mc-challenge-system/models"
	"mc-challenge-system/services"
	"mc-challenge-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("⚠️  No .env file found, reading environment variables directly")
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, badge icons only
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		logrus.Warn("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Fatal("DATABASE_URL environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logrus.Fatal("JWT_SECRET environment variable not set")
	}

	if err := utils.InitStorage(); err != nil {
		logrus.Fatal("failed to initialize storage client: ", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Action{},
		&models.Challenge{},
		&models.Task{},
		&models.ChallengeMembership{},
		&models.TaskProgress{},
		&models.Notification{},
		&models.Badge{},
		&models.UserBadge{},
	); err != nil {
		logrus.Fatal("failed to migrate database: ", err)
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	codeStore, err := services.NewLinkCodeStore(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), redisDB)
	if err != nil {
		logrus.Fatal("failed to connect to redis: ", err)
	}

	notificationService := services.NewNotificationService(db)
	rewardService := services.NewRewardService(db)
	badgeService := services.NewBadgeService(db, notificationService)
	progressService := services.NewProgressService(db, rewardService, notificationService, badgeService)
	challengeService := services.NewChallengeService(db, notificationService)
	taskService := services.NewTaskService(db)
	actionService := services.NewActionService(db, progressService)
	authService := services.NewAuthService(db, codeStore, []byte(jwtSecret))
	userService := services.NewUserService(db)

	if err := actionService.SeedDefaults(); err != nil {
		logrus.Fatal("failed to seed default actions: ", err)
	}

	challengeService.StartPublishScheduler()

	authmw := middleware.Authenticated(db, []byte(jwtSecret))

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupChallengeRoutes(app, authmw, challengeService, taskService, progressService)
	handlers.SetupProgressRoutes(app, authmw, progressService)
	handlers.SetupActionRoutes(app, authmw, actionService)
	handlers.SetupNotificationRoutes(app, authmw, notificationService)
	handlers.SetupBadgeRoutes(app, authmw, badgeService)
	handlers.SetupUserRoutes(app, authmw, userService, challengeService, progressService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			logrus.Errorf("Server error: %v", err)
		}
	}()

	logrus.Infof("✅ Server running on http://localhost:%s", port)
	logrus.Infof("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	logrus.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logrus.Errorf("Shutdown error: %v", err)
	}
}
