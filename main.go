package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lms-backend/config"
	"lms-backend/database"
	routes "lms-backend/internal/app/http"
	"lms-backend/internal/notifications"
	"lms-backend/internal/settings"
	"lms-backend/internal/settlement"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	database.InitDB()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dispatcher := notifications.NewDispatcher(config.NOTIFY_WEBHOOK_URL, logger)
	dispatcher.Start()
	defer dispatcher.Close()

	settingsStore := settings.NewStore(settings.NewGormRepository(database.DB))
	engine := settlement.NewService(settlement.NewGormStore(database.DB), settingsStore, dispatcher, logger)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, engine, settingsStore)

	r.Run(":" + config.PORT)
}
