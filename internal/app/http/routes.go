package routes

import (
	"github.com/gin-gonic/gin"

	billingapi "lms-backend/internal/api/billing"
	"lms-backend/internal/api/catalog"
	"lms-backend/internal/api/settingsapi"
	walletapi "lms-backend/internal/api/wallet"
	"lms-backend/internal/app/http/middleware"
	"lms-backend/internal/settings"
	"lms-backend/internal/settlement"
)

func RegisterRoutes(r *gin.Engine, svc *settlement.Service, cfg *settings.Store) {
	billing := billingapi.NewHandler(svc)
	wallet := walletapi.NewHandler(svc)
	settingsHandler := settingsapi.NewHandler(cfg)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public catalog
	r.GET("/branches", catalog.ListBranches)
	r.GET("/classes", catalog.ListClasses)
	r.GET("/classes/:id/sessions", catalog.ListSessions)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())

	auth.GET("/students", catalog.ListMyStudents)

	auth.GET("/wallet", wallet.GetBalance)
	auth.POST("/wallet/deposit", wallet.Deposit)
	auth.GET("/payments", billing.GetPaymentHistory)

	auth.POST("/billing/installments", billing.PayInstallment)
	auth.POST("/billing/sessions", billing.PaySession)
	auth.GET("/students/:id/charges", billing.ListStudentCharges)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"), middleware.SanitizeAndCleanInputMiddleware())

	admin.GET("/settings", settingsHandler.GetSettings)
	admin.PUT("/settings/:key", settingsHandler.UpdateSetting)

	admin.POST("/branches", catalog.CreateBranch)
	admin.POST("/classes", catalog.CreateClass)
	admin.POST("/classes/:id/sessions", catalog.CreateSession)
	admin.POST("/students", catalog.CreateStudentProfile)

	admin.POST("/charges", billing.CreateCharge)
	admin.POST("/charges/:id/cancel", billing.CancelCharge)
	admin.GET("/payments", billing.ListAllPayments)
	admin.POST("/payments/:id/refund", billing.Refund)
}
