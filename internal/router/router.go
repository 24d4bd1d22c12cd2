package router

import (
	"time"

	"affiliate-service/config"
	"affiliate-service/internal/handler"
	"affiliate-service/internal/middleware"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/service"
	"affiliate-service/internal/ws"
	"affiliate-service/pkg/currency"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the shared singletons the router wires into handlers.
type Deps struct {
	Hub       *ws.Hub
	Converter *currency.Converter
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(300, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	attributionRepo := repository.NewAttributionRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	bankRepo := repository.NewBankAccountRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	referralSvc := service.NewReferralService(affiliateRepo)
	attributionSvc := service.NewAttributionService(db, attributionRepo, affiliateRepo, settingRepo)
	ledgerSvc := service.NewLedgerService(db, commissionRepo, affiliateRepo, attributionRepo, settingRepo, attributionSvc, deps.Hub)
	payoutSvc := service.NewPayoutService(db, payoutRepo, affiliateRepo, commissionRepo, settingRepo, deps.Converter, deps.Hub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	trackHandler := handler.NewTrackHandler(cfg, attributionSvc)
	orderHandler := handler.NewOrderHandler(cfg, ledgerSvc)
	affiliateHandler := handler.NewAffiliateHandler(cfg, referralSvc, payoutSvc, affiliateRepo, commissionRepo, payoutRepo)
	adminHandler := handler.NewAdminHandler(ledgerSvc, payoutSvc, affiliateRepo, commissionRepo, payoutRepo, settingRepo)
	bankHandler := handler.NewBankAccountHandler(bankRepo)
	ratesHandler := handler.NewRatesHandler(deps.Converter)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/r/:code", trackHandler.Redirect)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		trackGroup := api.Group("/track")
		{
			trackGroup.POST("/click", trackHandler.Click)
			trackGroup.POST("/bind", trackHandler.Bind)
			trackGroup.GET("/active", trackHandler.Active)
		}

		api.POST("/orders", orderHandler.Create)
		api.GET("/rates/idr", ratesHandler.GetIDR)
		api.GET("/bank-accounts", bankHandler.ListPublic)
		api.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, deps.Hub))

		affiliateGroup := api.Group("/affiliate", authMw)
		{
			affiliateGroup.POST("/enroll", affiliateHandler.Enroll)
			affiliateGroup.GET("/me", affiliateHandler.Me)
			affiliateGroup.PATCH("/me/bank", affiliateHandler.UpdateBankInfo)
			affiliateGroup.GET("/me/commissions", affiliateHandler.ListCommissions)
			affiliateGroup.GET("/me/payouts", affiliateHandler.ListPayouts)
			affiliateGroup.POST("/me/payouts", affiliateHandler.RequestPayout)
		}

		adminGroup := api.Group("/admin", authMw, middleware.AdminRequired())
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)

			adminGroup.GET("/commissions", adminHandler.ListCommissions)
			adminGroup.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
			adminGroup.POST("/commissions/:id/reject", adminHandler.RejectCommission)

			adminGroup.GET("/payouts", adminHandler.ListPayouts)
			adminGroup.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
			adminGroup.POST("/payouts/:id/process", adminHandler.ProcessPayout)
			adminGroup.POST("/payouts/:id/reject", adminHandler.RejectPayout)
			adminGroup.POST("/payouts/:id/complete", adminHandler.CompletePayout)
			adminGroup.POST("/payouts/:id/mark-paid", adminHandler.MarkPayoutPaid)

			adminGroup.GET("/affiliates", adminHandler.ListAffiliates)
			adminGroup.GET("/affiliates/:id", adminHandler.GetAffiliate)
			adminGroup.PATCH("/affiliates/:id/active", adminHandler.SetAffiliateActive)

			adminGroup.GET("/settings", adminHandler.GetSettings)
			adminGroup.PATCH("/settings", adminHandler.UpdateSettings)

			adminGroup.GET("/bank-accounts", bankHandler.List)
			adminGroup.POST("/bank-accounts", bankHandler.Create)
			adminGroup.PATCH("/bank-accounts/:id", bankHandler.Update)
			adminGroup.POST("/bank-accounts/:id/default", bankHandler.SetDefault)
			adminGroup.DELETE("/bank-accounts/:id", bankHandler.Delete)
		}
	}

	return r
}
