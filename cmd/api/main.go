package main

import (
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Recovery Logistics API
// @version         1.0
// @description     Branch-to-quality-team recovery pipeline for defective parts and returned appliances.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Eligible model-name prefixes for auto-selection, comma separated.
	var modelPrefixes []string
	if v := os.Getenv("RECOVERY_MODEL_PREFIXES"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				modelPrefixes = append(modelPrefixes, p)
			}
		}
	}

	routing := service.RoutingTable{
		Default: service.Destination{
			Name:    envOr("QUALITY_CENTER_NAME", "품질관리센터"),
			Address: os.Getenv("QUALITY_CENTER_ADDRESS"),
			Phone:   os.Getenv("QUALITY_CENTER_PHONE"),
		},
	}
	// ROUTING_RULES example: "WP=정수기센터|서울시 ...|02-000-0000;CP=..."
	// Rules apply in the order they are listed.
	if v := os.Getenv("ROUTING_RULES"); v != "" {
		for _, rule := range strings.Split(v, ";") {
			parts := strings.SplitN(rule, "=", 2)
			if len(parts) != 2 {
				continue
			}
			fields := strings.SplitN(parts[1], "|", 3)
			dest := service.Destination{Name: fields[0]}
			if len(fields) > 1 {
				dest.Address = fields[1]
			}
			if len(fields) > 2 {
				dest.Phone = fields[2]
			}
			routing.Rules = append(routing.Rules, service.RoutingRule{
				Prefix:      strings.TrimSpace(parts[0]),
				Destination: dest,
			})
		}
	}

	smtpPort, err := strconv.Atoi(envOr("SMTP_PORT", "587"))
	if err != nil {
		log.Printf("Invalid SMTP_PORT, falling back to 587: %v", err)
		smtpPort = 587
	}
	emailCfg := service.EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	materialRepo := repository.NewRecoveryMaterialRepository(db)
	usageRepo := repository.NewMaterialUsageRepository(db)
	productRepo := repository.NewProductRecoveryRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	backupRepo := repository.NewBackupRepository(db)

	userService := service.NewUserService(userRepo, historyRepo)
	branchService := service.NewBranchService(branchRepo, txManager)
	materialService := service.NewMaterialService(materialRepo, historyRepo, txManager)
	usageService := service.NewUsageService(usageRepo, materialRepo, historyRepo, txManager, wsHub)
	productService := service.NewProductService(productRepo, historyRepo, txManager, modelPrefixes, wsHub)
	workflowService := service.NewWorkflowService(usageRepo, productRepo, historyRepo, txManager, wsHub)
	exportService := service.NewExportService(usageRepo, productRepo)
	packingService := service.NewPackingService(productRepo, branchRepo, routing)
	reportService := service.NewReportService(usageRepo, productRepo)
	emailService := service.NewEmailService(emailCfg)
	historyService := service.NewHistoryService(historyRepo)
	maintenanceService := service.NewMaintenanceService(usageRepo, productRepo, backupRepo, txManager)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	branchHandler := handler.NewBranchHandler(branchService)
	materialHandler := handler.NewMaterialHandler(materialService)
	usageHandler := handler.NewUsageHandler(usageService, workflowService, exportService)
	productHandler := handler.NewProductHandler(productService, workflowService, exportService, packingService)
	reportHandler := handler.NewReportHandler(reportService, emailService)
	historyHandler := handler.NewHistoryHandler(historyService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	branchHandler.RegisterRoutes(router.Group(""))
	materialHandler.RegisterRoutes(router.Group(""))
	usageHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	historyHandler.RegisterRoutes(router.Group(""))
	maintenanceHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
