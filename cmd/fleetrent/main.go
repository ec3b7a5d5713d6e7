package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetrent/internal/app/commands"
	availabilityapp "fleetrent/internal/app/handlers/availability"
	bookingapp "fleetrent/internal/app/handlers/booking"
	fleetapp "fleetrent/internal/app/handlers/fleet"
	meapp "fleetrent/internal/app/handlers/me"
	pricingapp "fleetrent/internal/app/handlers/pricing"
	statsapp "fleetrent/internal/app/handlers/stats"
	"fleetrent/internal/app/middleware"
	"fleetrent/internal/app/outbox"
	"fleetrent/internal/app/policies"
	"fleetrent/internal/app/queries"
	authsvc "fleetrent/internal/app/services/auth"
	"fleetrent/internal/app/uow"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	"fleetrent/internal/domain/pricing"
	"fleetrent/internal/domain/shared/money"
	"fleetrent/internal/infra/broker/kafka"
	"fleetrent/internal/infra/config"
	mongodb "fleetrent/internal/infra/db/mongo"
	ginserver "fleetrent/internal/infra/http/gin"
	"fleetrent/internal/infra/obs"
	infraoutbox "fleetrent/internal/infra/outbox"
	"fleetrent/internal/infra/ratelimit"
	"fleetrent/internal/infra/security"
	"fleetrent/internal/infra/storage/memory"
	"fleetrent/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.Persistence = "memory"
		cfg.Currency = "USD"
		cfg.TaxRateBps = 1800
		cfg.PointValueCents = 100
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	obs.RegisterMetrics()

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.Persistence == "memory" {
		fixturesPath := getenv("VEHICLE_FIXTURES", "")
		if fixturesPath == "" {
			fixturesPath = defaultVehicleFixturesPath()
		}
		if err := app.loadVehicleFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("vehicle fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "persistence", cfg.Persistence)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
	worker   *infraoutbox.Worker
	producer *kafka.Producer

	fleetRepo domainfleet.Repository
}

func (a *application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		uowFactory  uow.UoWFactory
		memberRepo  domainmember.Repository
		idStore     middleware.IdempotencyStore
		outboxStore outbox.Outbox
	)

	switch cfg.Persistence {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		fleetRepo := mongodb.NewVehicleRepository(client.DB)
		bookings := mongodb.NewBookingRepository(client.DB)
		members := mongodb.NewMemberRepository(client.DB)
		uowFactory = mongodb.Factory{
			DB:          client.DB,
			FleetRepo:   fleetRepo,
			BookingRepo: bookings,
			MemberRepo:  members,
		}
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		app.fleetRepo = fleetRepo
		memberRepo = members
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka connect: %w", err)
			}
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     []time.Duration{time.Second, 5 * time.Second, 30 * time.Second, 2 * time.Minute},
			}
		} else {
			logger.Warn("no kafka brokers configured, outbox events will accumulate unsent")
		}
	default:
		fleetRepo := memory.NewVehicleRepository()
		bookings := memory.NewBookingRepository()
		members := memory.NewMemberRepository()
		uowFactory = memory.Factory{
			FleetRepo:   fleetRepo,
			BookingRepo: bookings,
			MemberRepo:  members,
		}
		idStore = memory.NewIdempotencyStore()
		outboxStore = memory.NewOutbox()
		app.fleetRepo = fleetRepo
		memberRepo = members
	}

	estimator := policies.StaticEstimator{Engine: pricing.Estimator{
		Rates:           pricing.DefaultRateTable(),
		TaxRateBps:      cfg.TaxRateBps,
		PointValueCents: cfg.PointValueCents,
		Currency:        cfg.Currency,
	}}

	commandBus := commands.NewInMemoryBus()
	createHandler := &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory,
		Estimator:  estimator,
		Outbox:     outboxStore,
		Encoder:    outbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createHandler)
	cancelHandler := &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
	}
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), cancelHandler)

	transitions := &bookingapp.TransitionHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
	}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), transitions.ConfirmHandler())
	commands.RegisterHandler(commandBus, bookingapp.PickupCommand{}.Key(), transitions.PickupHandler())
	commands.RegisterHandler(commandBus, bookingapp.ReturnCommand{}.Key(), transitions.ReturnHandler())
	commands.RegisterHandler(commandBus, bookingapp.MarkNoShowCommand{}.Key(), transitions.NoShowHandler())

	fleetAdmin := &fleetapp.AdminHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
	}
	commands.RegisterHandler(commandBus, fleetapp.RegisterVehicleCommand{}.Key(), fleetAdmin.RegisterHandler())
	commands.RegisterHandler(commandBus, fleetapp.UpdateVehicleCommand{}.Key(), fleetAdmin.UpdateHandler())
	commands.RegisterHandler(commandBus, fleetapp.RetireVehicleCommand{}.Key(), fleetAdmin.RetireHandler())

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: uowFactory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, fleetapp.SearchAvailableQuery{}.Key(), &fleetapp.SearchAvailableHandler{
		UoWFactory: uowFactory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, fleetapp.GetVehicleQuery{}.Key(), &fleetapp.GetVehicleHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, pricingapp.EstimateQuery{}.Key(), &pricingapp.EstimateHandler{
		UoWFactory: uowFactory,
		Estimator:  estimator,
	})
	queries.RegisterHandler(queryBus, meapp.MemberBookingsQuery{}.Key(), &meapp.MemberBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, statsapp.AdminStatsQuery{}.Key(), &statsapp.AdminStatsHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation())

	// Sessions live in process: a restart logs everyone out, which is
	// acceptable for bearer tokens with a short TTL.
	authService := &authsvc.Service{
		Members:    memberRepo,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: commandBusWithMiddleware},
		Fleet:   ginserver.FleetHandler{Queries: queryBusWithMiddleware},
		Auth:    ginserver.AuthHandler{Service: authService, Logger: logger},
		Me:      ginserver.MeHandler{Queries: queryBusWithMiddleware},
		Admin: ginserver.AdminHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Uploader: buildUploader(cfg, logger),
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	if cfg.RateLimitEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter := ratelimit.NewFixedWindow(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)
		handlers.RateLimit = ginserver.RateLimitMiddleware(limiter, logger)
	}

	app.handlers = handlers
	return app, nil
}

func buildUploader(cfg config.Config, logger *slog.Logger) s3.Uploader {
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("photo storage disabled", "error", err)
		return s3.NoopUploader{}
	}
	return client
}

func (a *application) loadVehicleFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("vehicle fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("vehicle fixtures file empty", "path", path)
		return nil
	}

	var fixtures []vehicleFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	now := time.Now()
	for _, fx := range fixtures {
		currency := fx.Currency
		if currency == "" {
			currency = "USD"
		}
		daily, err := money.New(fx.DailyRateCents, currency)
		if err != nil {
			logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		hourly, err := money.New(fx.HourlyRateCents, currency)
		if err != nil {
			logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		deposit, err := money.New(fx.DepositCents, currency)
		if err != nil {
			logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		vehicle, err := domainfleet.NewVehicle(domainfleet.CreateParams{
			ID:           domainfleet.VehicleID(fx.ID),
			Plate:        fx.Plate,
			Make:         fx.Make,
			Model:        fx.Model,
			Year:         fx.Year,
			Category:     domainfleet.Category(fx.Category),
			Location:     fx.Location,
			Fuel:         domainfleet.FuelType(fx.Fuel),
			Transmission: domainfleet.Transmission(fx.Transmission),
			Seats:        fx.Seats,
			DailyRate:    daily,
			HourlyRate:   hourly,
			Deposit:      deposit,
			Mileage:      fx.Mileage,
			Photos:       append([]string(nil), fx.Photos...),
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		if err := vehicle.Activate(now); err != nil {
			logger.Error("fixture activation failed", "vehicle_id", fx.ID, "error", err)
			continue
		}
		vehicle.ClearEvents()
		if err := a.fleetRepo.Save(ctx, vehicle); err != nil {
			logger.Error("cannot store fixture vehicle", "vehicle_id", fx.ID, "error", err)
			continue
		}
		logger.Info("vehicle fixture imported", "vehicle_id", vehicle.ID)
	}
	return nil
}

type vehicleFixture struct {
	ID              string   `json:"id"`
	Plate           string   `json:"plate"`
	Make            string   `json:"make"`
	Model           string   `json:"model"`
	Year            int      `json:"year"`
	Category        string   `json:"category"`
	Location        string   `json:"location"`
	Fuel            string   `json:"fuel"`
	Transmission    string   `json:"transmission"`
	Seats           int      `json:"seats"`
	DailyRateCents  int64    `json:"daily_rate_cents"`
	HourlyRateCents int64    `json:"hourly_rate_cents"`
	DepositCents    int64    `json:"deposit_cents"`
	Currency        string   `json:"currency"`
	Mileage         int64    `json:"mileage"`
	Photos          []string `json:"photos"`
}

func defaultVehicleFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "vehicles.json"),
		filepath.Join("cmd", "fleetrent", "data", "vehicles.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
