package main

import (
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	inventoryapp "staybook/internal/app/handlers/inventory"
	specialratesapp "staybook/internal/app/handlers/specialrates"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
)

type application struct {
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
}

func buildApplication(cfg config.Config, infra *infrastructure, metrics *obs.Metrics, logger *slog.Logger) application {
	factory := infra.factory
	encoder := appoutbox.JSONEventEncoder{}
	now := func() time.Time { return time.Now().UTC() }

	commandBus := commands.NewInMemoryBus()
	rateDeps := specialratesapp.Dependencies{Outbox: infra.outbox, Encoder: encoder, Cache: infra.cache, Logger: logger}
	commands.RegisterHandler[specialratesapp.CreateSpecialRateCommand, *dto.SpecialRate](commandBus, specialratesapp.NewCreateSpecialRateHandler(factory, rateDeps))
	commands.RegisterHandler[specialratesapp.UpdateSpecialRateCommand, *dto.SpecialRate](commandBus, specialratesapp.NewUpdateSpecialRateHandler(factory, rateDeps))
	commands.RegisterHandler[specialratesapp.DeleteSpecialRateCommand, *specialratesapp.DeleteSpecialRateResult](commandBus, specialratesapp.NewDeleteSpecialRateHandler(factory, rateDeps))
	commands.RegisterHandler[specialratesapp.SetSpecialRateActiveCommand, *dto.SpecialRate](commandBus, specialratesapp.NewSetSpecialRateActiveHandler(factory, rateDeps))
	commands.RegisterHandler[inventoryapp.SetRoomRatesCommand, *inventoryapp.SetRoomRatesResult](commandBus, &inventoryapp.SetRoomRatesHandler{
		UoWFactory: factory,
		Outbox:     infra.outbox,
		Encoder:    encoder,
		Cache:      infra.cache,
		Logger:     logger,
		Now:        now,
	})
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](commandBus, &bookingapp.RequestBookingHandler{
		UoWFactory: factory,
		Payments:   infra.payments,
		Outbox:     infra.outbox,
		Encoder:    encoder,
		Cache:      infra.cache,
		Metrics:    metrics,
		Logger:     logger,
		Cancellation: bookingapp.CancellationTerms{
			FreeDays:       cfg.CancelFreeDays,
			PenaltyPercent: cfg.CancelPenaltyPercent,
		},
		Now: now,
	})
	commands.RegisterHandler[bookingapp.CancelBookingCommand, *dto.CancellationResult](commandBus, &bookingapp.CancelBookingHandler{
		UoWFactory: factory,
		Payments:   infra.payments,
		Outbox:     infra.outbox,
		Encoder:    encoder,
		Cache:      infra.cache,
		Logger:     logger,
		Now:        now,
	})
	commands.RegisterHandler[availabilityapp.InvalidateCalendarCommand, *availabilityapp.InvalidateCalendarResult](commandBus, &availabilityapp.InvalidateCalendarHandler{
		Cache: infra.cache,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[availabilityapp.GetPricedCalendarQuery, dto.PricedCalendar](queryBus, &availabilityapp.GetPricedCalendarHandler{
		UoWFactory: factory,
		Cache:      infra.cache,
		Metrics:    metrics,
		Logger:     logger,
	})
	queries.RegisterHandler[specialratesapp.ListSpecialRatesQuery, dto.SpecialRateCollection](queryBus, &specialratesapp.ListSpecialRatesHandler{UoWFactory: factory})
	queries.RegisterHandler[bookingapp.QuoteStayQuery, dto.StayQuote](queryBus, &bookingapp.QuoteStayHandler{UoWFactory: factory, Metrics: metrics})
	queries.RegisterHandler[bookingapp.GetBookingQuery, dto.BookingSummary](queryBus, &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler[bookingapp.ListPropertyBookingsQuery, bookingapp.BookingCollection](queryBus, &bookingapp.ListPropertyBookingsHandler{UoWFactory: factory})

	logger.Debug("bus handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Observe(logger, metrics),
		middleware.Validation(),
		middleware.Idempotency(infra.idempotency, nil, cfg.IdempotencyTTL),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(infra.outbox, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.ObserveQueries(logger, metrics),
		middleware.QueryValidation(),
	)

	return application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
			SpecialRates: ginserver.SpecialRatesHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
			Inventory:    ginserver.InventoryHandler{Commands: commandBusWithMiddleware, Logger: logger},
			Metrics:      metrics,
		},
	}
}
