package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docvault/backend/internal/config"
	"github.com/docvault/backend/internal/database"
	"github.com/docvault/backend/internal/handlers"
	"github.com/docvault/backend/internal/middleware"
	"github.com/docvault/backend/internal/storage"
	"github.com/docvault/backend/pkg/logger"
	"github.com/docvault/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "minio":
		store, err := storage.NewMinioStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	case "local":
		return storage.NewLocalStore(cfg.BasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationMinutes)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	authHandler := handlers.NewAuthHandler(db, store, cfg.Auth.RequireActive)
	filesHandler := handlers.NewFilesHandler(db, store)
	foldersHandler := handlers.NewFoldersHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db, cfg.Auth.RequireActive)

	app := fiber.New(fiber.Config{
		BodyLimit:             100 * 1024 * 1024,
		StreamRequestBody:     true,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/healthcheck", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authMiddleware.RequireAuth, authHandler.Logout)
	authRoutes.Get("/user", authMiddleware.RequireAuth, authHandler.Me)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Post("/", filesHandler.Create)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Put("/:id", filesHandler.Update)
	fileRoutes.Post("/:id/content", filesHandler.UploadContent)
	fileRoutes.Get("/:id/content", filesHandler.DownloadContent)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/:id/contents", foldersHandler.ListChildren)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"address":        listenAddr,
		"storage_driver": cfg.Storage.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
