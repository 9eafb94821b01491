package main

import (
	"collaborative-code-editor/internal/chat"
	"collaborative-code-editor/internal/config"
	"collaborative-code-editor/internal/db"
	"collaborative-code-editor/internal/file"
	"collaborative-code-editor/internal/hub"
	"collaborative-code-editor/internal/middleware"
	"collaborative-code-editor/internal/project"
	"collaborative-code-editor/internal/user"
	"collaborative-code-editor/internal/worker"
	"collaborative-code-editor/redis"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	db.SeedData()

	// Initialize Redis cache
	cache := redis.NewCache(config.AppConfig.RedisAddress)

	// Worker pool for notification fan-out
	pool := worker.NewPool(8)
	defer pool.Shutdown()

	// Realtime hub
	wsHub := hub.NewHub(pool)
	go wsHub.Run()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	projectRepo := project.NewRepository(db.AppDb)
	fileRepo := file.NewRepository(db.AppDb)
	chatRepo := chat.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	projectService := project.NewService(projectRepo, wsHub)
	fileService := file.NewService(fileRepo, projectService, wsHub)
	chatService := chat.NewService(chatRepo, projectService, wsHub, cache)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	projectHandler := project.NewHandler(projectService)
	fileHandler := file.NewHandler(fileService)
	chatHandler := chat.NewHandler(chatService)

	auth := middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", auth.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", auth.AuthMiddleWare(), userHandler.GetProfile)

	// Project routes
	router.POST("/projects", auth.AuthMiddleWare(), projectHandler.Create)
	router.GET("/projects", auth.AuthMiddleWare(), projectHandler.List)
	router.GET("/projects/:id", auth.AuthMiddleWare(), projectHandler.Enter)
	router.POST("/projects/:id/members", auth.AuthMiddleWare(), projectHandler.AddMember)
	router.DELETE("/projects/:id/members", auth.AuthMiddleWare(), projectHandler.Leave)

	// Chat routes
	router.GET("/projects/:id/messages", auth.AuthMiddleWare(), chatHandler.GetMessages)
	router.POST("/projects/:id/messages", auth.AuthMiddleWare(), chatHandler.PostMessage)

	// File routes
	router.POST("/files", auth.AuthMiddleWare(), fileHandler.Create)
	router.PUT("/files/:id", auth.AuthMiddleWare(), fileHandler.Rename)
	router.DELETE("/files/:id", auth.AuthMiddleWare(), fileHandler.Delete)
	router.POST("/files/:id/assign", auth.AuthMiddleWare(), fileHandler.Assign)
	router.POST("/files/:id/unassign", auth.AuthMiddleWare(), fileHandler.Unassign)
	router.POST("/files/:id/start", auth.AuthMiddleWare(), fileHandler.StartEditing)
	router.PUT("/files/:id/save", auth.AuthMiddleWare(), fileHandler.Save)
	router.GET("/files/:id/versions", auth.AuthMiddleWare(), fileHandler.ListVersions)

	// Websocket endpoint
	router.GET("/ws", auth.AuthMiddleWare(), wsHub.ServeWS)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
