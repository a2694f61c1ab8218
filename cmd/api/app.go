package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	appointmenthandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	invoicehandler "github.com/jwalitptl/clinic-api/internal/handler/invoice"
	patienthandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	promhandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentservice "github.com/jwalitptl/clinic-api/internal/service/appointment"
	authservice "github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/billing"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	patientservice "github.com/jwalitptl/clinic-api/internal/service/patient"
	userservice "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

const metricsNamespace = "clinic"

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validator.RegisterBinding(); err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(metricsNamespace, registry)

	broker, err := newBroker(cfg.Redis)
	if err != nil {
		return err
	}
	defer broker.Close()

	logger := log.Logger
	publisher := messaging.NewEventPublisher(broker, cfg.Redis.Channel, m, &logger)

	// Repositories
	userRepo := postgres.NewUserRepository(db, m)
	patientRepo := postgres.NewPatientRepository(db, m)
	serviceRepo := postgres.NewServiceRepository(db, m)
	appointmentRepo := postgres.NewAppointmentRepository(db, m)
	invoiceRepo := postgres.NewInvoiceRepository(db, m)
	recordRepo := postgres.NewMedicalRecordRepository(db, m)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	notifier := notification.NewService(patientRepo, email.NewService(cfg.SMTP, &logger), &logger)

	authSvc := authservice.NewService(userRepo, jwtSvc, hasher, cfg.Login, &logger)
	userSvc := userservice.NewService(userRepo, patientRepo, hasher)
	patientSvc := patientservice.NewService(patientRepo)
	recordSvc := medical.NewService(recordRepo, patientRepo, appointmentRepo, &logger)
	appointmentSvc := appointmentservice.NewService(appointmentRepo, patientRepo, userRepo, publisher, notifier, m, &logger)
	billingSvc := billing.NewService(invoiceRepo, patientRepo, serviceRepo, appointmentRepo, publisher, notifier, billing.Options{
		Formatter:  money.NewFormatter(cfg.Billing.CurrencySymbol, cfg.Billing.Locale),
		ClinicName: cfg.Billing.ClinicName,
		Metrics:    m,
		Logger:     &logger,
	})

	// Router
	routerCfg := router.RouterConfig{
		CORSConfig:   middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		jwtSvc,
		authhandler.NewHandler(authSvc, userSvc),
		health.NewHandler(map[string]health.Check{"database": db.PingContext}),
		promhandler.New(metricsNamespace, registry),
		routerCfg,
		appointmenthandler.NewHandler(appointmentSvc),
		invoicehandler.NewHandler(billingSvc),
		patienthandler.NewHandler(patientSvc, recordSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}

func runMigrations(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Database.Name).Msg("schema applied")
	return nil
}

func runCreateUser(ctx context.Context, cfg *config.Config, req *model.CreateUserRequest) error {
	if req.Role == model.RolePatient {
		return errors.New("patient logins are created through the API")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewMetrics(metricsNamespace, prometheus.NewRegistry())
	svc := userservice.NewService(
		postgres.NewUserRepository(db, m),
		postgres.NewPatientRepository(db, m),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
	)

	user, err := svc.Create(ctx, req)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user created")
	return nil
}

// runWorker logs every status change and finalized invoice from the event
// channel, giving operators a feed independent of the API logs.
func runWorker(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.URL == "" {
		return errors.New("worker requires redis.url")
	}
	broker, err := newBroker(cfg.Redis)
	if err != nil {
		return err
	}
	defer broker.Close()

	logger := log.Logger
	consumer := worker.NewEventConsumer(broker, cfg.Redis.Channel,
		metrics.NewMetrics(metricsNamespace, prometheus.NewRegistry()), &logger)

	consumer.Handle(appointmentservice.EventStatusChanged, func(ctx context.Context, e *messaging.Event) error {
		var payload appointmentservice.StatusChangedEvent
		if err := e.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("appointment_id", payload.AppointmentID.String()).
			Str("from", string(payload.From)).
			Str("to", string(payload.To)).
			Str("changed_by", payload.ChangedBy.String()).
			Msg("appointment status changed")
		return nil
	})
	consumer.Handle(billing.EventInvoiceFinalized, func(ctx context.Context, e *messaging.Event) error {
		var payload billing.InvoiceFinalizedEvent
		if err := e.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("invoice_id", payload.InvoiceID.String()).
			Str("total_due", payload.TotalDue.String()).
			Str("change", payload.Change.String()).
			Msg("invoice finalized")
		return nil
	})

	return consumer.Run(ctx)
}

// newBroker connects to Redis, or returns a no-op broker when no URL is set.
func newBroker(cfg config.RedisConfig) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Warn().Msg("redis.url not set, domain events are discarded")
		return messaging.NoopBroker{}, nil
	}

	logger := log.Logger
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, &logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return broker, nil
}
