package app

import (
	"database/sql"
	"fmt"
	"log"

	"vtask/internal/config"
	"vtask/internal/handlers"
	"vtask/internal/middleware"
	"vtask/internal/pdf"
	"vtask/internal/realtime"
	"vtask/internal/repositories"
	"vtask/internal/routes"
	"vtask/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "vtask/docs"
)

func Run() {
	cfg := config.LoadConfig()

	if cfg.Auth.JWTSecret != "" {
		middleware.JWTKey = []byte(cfg.Auth.JWTSecret)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	subtaskRepo := repositories.NewSubtaskRepository(db)
	batchFactory := repositories.NewBatchFactory(db)

	// === Realtime ===
	hub := realtime.NewBoardHub(taskRepo)

	// === Services ===
	authService := services.NewAuthService()
	userService := services.NewUserService(userRepo, authService)
	taskService := services.NewTaskService(taskRepo, subtaskRepo, batchFactory, hub)
	subtaskService := services.NewSubtaskService(subtaskRepo, taskRepo, batchFactory, hub)
	retentionService := services.NewRetentionService(taskRepo, subtaskRepo, hub, cfg.Files.RootDir)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.ContactInbox,
	)
	boardManager := services.NewBoardManager(taskService, hub)
	defer boardManager.Close()

	// Optional telegram digest; nil when no bot token is configured.
	digest, err := services.NewDigestService(
		cfg.Telegram.BotToken,
		cfg.Telegram.DigestSchedule,
		userRepo,
		taskRepo,
	)
	if err != nil {
		log.Printf("[digest][warn] disabled: %v", err)
	}
	if digest != nil {
		if err := digest.Start(); err != nil {
			log.Printf("[digest][warn] not started: %v", err)
		}
		defer digest.Stop()
	}

	reportGen := pdf.NewBoardReportGenerator(cfg.Files.RootDir)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	subtaskHandler := handlers.NewSubtaskHandler(subtaskService, taskService)
	boardHandler := handlers.NewBoardHandler(boardManager, taskService, hub)
	trashHandler := handlers.NewTrashHandler(taskService, retentionService, boardManager)
	contactHandler := handlers.NewContactHandler(emailService)
	reportHandler := handlers.NewReportHandler(taskService, userService, reportGen)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		taskHandler,
		subtaskHandler,
		boardHandler,
		trashHandler,
		contactHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
