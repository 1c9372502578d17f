package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/handlers"
	"github.com/example/bukufunnel/internal/middleware"
	"github.com/example/bukufunnel/internal/services"
)

// Register wires up all HTTP routes. It returns the follow-up service so the
// caller can hook it to the in-process cron schedule.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.FollowupService {
	store := services.NewStoreService(cfg.StoreURL, cfg.StoreAdminEmail, cfg.StoreAdminPassword)
	gateway := services.NewGatewayService(cfg.GatewayURL, cfg.GatewaySecret, cfg.GatewayCategory)
	chat := services.NewChatService(cfg.ChatGatewayURL, cfg.ChatAPIKey, cfg.ChatSession)
	mail := services.NewMailService(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFromEmail, cfg.MailFromName)

	windows, err := services.ParseSendWindows(cfg.SendWindows)
	if err != nil {
		log.Fatalf("invalid SEND_WINDOWS: %v", err)
	}

	followup := services.NewFollowupService(db, store, chat, mail, services.FollowupConfig{
		Windows:   windows,
		UTCOffset: cfg.UTCOffsetHours,
		PageSize:  cfg.FollowupPageSize,
		SkipPaid:  cfg.FollowupSkipPaid,
		SiteURL:   cfg.SiteURL,
	})

	checkoutHandler := handlers.NewCheckoutHandler(db, store, gateway, chat, mail, cfg)
	webhookHandler := handlers.NewWebhookHandler(db, store, chat, mail, cfg)
	followupHandler := handlers.NewFollowupHandler(followup)
	adminHandler := handlers.NewAdminHandler(db, cfg)

	api := app.Group("/api")

	api.Post("/checkout", checkoutHandler.Checkout)
	api.Post("/payment/callback", webhookHandler.PaymentCallback)

	api.Post("/followup/run", middleware.TriggerAuthMiddleware(cfg.FollowupSecret), followupHandler.Run)

	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/bills", adminHandler.ListBills)
	protected.Get("/followup-runs", adminHandler.ListFollowupRuns)

	return followup
}
