package main

import (
	"fmt"
	"os"

	"sanitation-service/internal/auth"
	"sanitation-service/internal/clock"
	"sanitation-service/internal/config"
	"sanitation-service/internal/db"
	httphandler "sanitation-service/internal/http"
	"sanitation-service/internal/http/middleware"
	"sanitation-service/internal/logger"
	"sanitation-service/internal/notify"
	"sanitation-service/internal/repository"
	"sanitation-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	businessRepo := repository.NewBusinessRepository(database)
	ticketRepo := repository.NewTicketRepository(database)
	violationRepo := repository.NewViolationRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	clk := clock.System()

	businessService := service.NewBusinessService(businessRepo, ticketRepo, violationRepo, clk)
	inspectionService := service.NewInspectionService(businessRepo, ticketRepo, violationRepo, clk)
	notificationService := service.NewNotificationService(notificationRepo)

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	dispatcher := notify.NewDispatcher(notificationRepo, mailer, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(businessService, inspectionService, notificationService, dispatcher, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), database, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting sanitation service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
