package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/database"
	"github.com/example/bukufunnel/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName: "Bukufunnel Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	followup := routes.Register(app, db, cfg)

	if cfg.FollowupCronEnabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.FollowupCron, func() {
			report, err := followup.Run(context.Background(), time.Now())
			if err != nil {
				log.Printf("[Followup] scheduled run failed: %v", err)
				return
			}
			if report.Skipped {
				log.Printf("[Followup] scheduled run skipped: %s", report.Reason)
				return
			}
			log.Printf("[Followup] scheduled run processed %d orders", report.Processed)
		})
		if err != nil {
			log.Fatalf("invalid FOLLOWUP_CRON spec %q: %v", cfg.FollowupCron, err)
		}
		scheduler.Start()
		log.Printf("Follow-up cron scheduled: %s", cfg.FollowupCron)
	}

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
