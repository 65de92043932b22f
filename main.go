package main

import (
	"log"

	"github.com/dropzonehq/reservation-service/config"
	"github.com/dropzonehq/reservation-service/internal/consumer"
	"github.com/dropzonehq/reservation-service/internal/handler"
	"github.com/dropzonehq/reservation-service/internal/middleware"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"github.com/dropzonehq/reservation-service/internal/service"
	"github.com/dropzonehq/reservation-service/pkg/database"
	"github.com/dropzonehq/reservation-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ consumer: sync user directory records from the identity service
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	userConsumer := consumer.NewUserConsumer(db)
	userConsumer.Start(msgs)

	// RabbitMQ publisher: reservation lifecycle events for downstream services
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect publisher to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Repositories
	windowRepo := repository.NewWindowRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	jumpRepo := repository.NewJumpRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	cascade := service.NewCascadeHandler(jumpRepo, waitlistRepo)
	bookingSvc := service.NewBookingService(windowRepo, jumpRepo, waitlistRepo, userRepo, cascade, publisher)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, windowRepo, jumpRepo)
	jumpSvc := service.NewJumpService(jumpRepo, waitlistRepo, windowRepo, publisher)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	handler.NewReservationHandler(bookingSvc, waitlistSvc, jumpSvc).RegisterRoutes(e)

	log.Printf("Reservation Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
