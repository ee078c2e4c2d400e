package main

import (
	"context"

	"campsite/internal/bookings/coordinator"
	"campsite/internal/bookings/events"
	"campsite/internal/bookings/handler"
	"campsite/internal/bookings/repository"
	"campsite/internal/bookings/router"
	"campsite/internal/bookings/rules"
	"campsite/internal/bookings/service"
	"campsite/internal/bookings/validator"
	"campsite/pkg/app"
	"campsite/pkg/config"
	kafka_middleware "campsite/pkg/kafka/middleware"
	"campsite/pkg/model"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.UsesMongo() {
		cfg.SetMongo()
	}

	cfg.Log.Info("Starting Bookings service")
	serverApp, err := buildApp(context.Background(), cfg, model.Today)
	if err != nil {
		cfg.Log.Fatal("Failed to start booking engine", "error", err)
	}
	serverApp.Run()
}

// buildApp wires the engine behind the HTTP API and starts the shards of today's window.
func buildApp(ctx context.Context, cfg *config.Config, today router.Clock) (*app.Application, error) {
	bookingRules, err := rules.New(cfg.MinDaysAheadOfArrival, cfg.MaxDaysAheadOfArrival, cfg.MaxReservableDays)
	if err != nil {
		return nil, err
	}

	storeOpts := repository.Options{
		Backend:   cfg.StorageBackend,
		Dir:       cfg.DatabaseFolder,
		OpTimeout: cfg.MongoConnTimeout,
	}
	var db handler.DatabasePinger
	if cfg.Client.Mongo != nil {
		storeOpts.Mongo = cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		db = cfg.Client.Mongo
	}
	store, err := repository.NewStore(ctx, storeOpts)
	if err != nil {
		return nil, err
	}

	dateRouter := router.New(bookingRules, store, router.Options{ShardMailboxSize: cfg.ShardMailboxSize}, cfg.Log)
	if err := dateRouter.Start(ctx, today()); err != nil {
		dateRouter.Close()
		return nil, err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		dateRouter.Close()
		return nil, err
	}

	bookingService := service.NewBookingService(
		coordinator.New(dateRouter, cfg.Log),
		dateRouter,
		bookingRules,
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg.Log,
	)
	cfg.Log.Info("Booking service initialized", "storage", cfg.StorageBackend, "current_date", dateRouter.Current().Key())

	calendarCtx, stopCalendar := context.WithCancel(context.Background())
	go dateRouter.FollowCalendar(calendarCtx, cfg.CalendarCheckInterval, today)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewHealthHandler(dateRouter, db, cfg.Log),
	)
	serverApp.OnShutdown(func(ctx context.Context) {
		stopCalendar()
		dateRouter.Close()
		if err := store.Close(ctx); err != nil {
			cfg.Log.Error("Failed to close event store", "error", err)
		}
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
		cfg.GracefulShutdown(ctx)
	})
	return serverApp, nil
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if !cfg.EventsEnabled {
		return events.NoopPublisher{}, nil
	}
	return events.NewKafkaPublisher(cfg.Kafka, kafka_middleware.NewMetrics(), cfg.Log)
}
