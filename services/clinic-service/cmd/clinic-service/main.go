package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agendavel/agendavel/libs/config"
	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/libs/httpx"
	"github.com/agendavel/agendavel/libs/kafkax"
	otelx "github.com/agendavel/agendavel/libs/otel"
	"github.com/agendavel/agendavel/libs/runtime"
	"github.com/agendavel/agendavel/services/clinic-service/internal/availability"
	"github.com/agendavel/agendavel/services/clinic-service/internal/billing"
	"github.com/agendavel/agendavel/services/clinic-service/internal/handlers"
	"github.com/agendavel/agendavel/services/clinic-service/internal/outbox"
	"github.com/agendavel/agendavel/services/clinic-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "clinic-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	tzName := config.String("CLINIC_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		logger.Error("invalid CLINIC_TIMEZONE; falling back to UTC", "value", tzName, "err", err)
		loc = time.UTC
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	professionalRepo := storage.NewProfessionalRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool)
	blockedTimeRepo := storage.NewBlockedTimeRepository(pool)
	patientRepo := storage.NewPatientRepository(pool)
	dashboardRepo := storage.NewDashboardRepository(pool)
	subscriptionRepo := storage.NewSubscriptionRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	availabilitySvc := availability.NewService(professionalRepo, appointmentRepo, blockedTimeRepo, loc)
	entitlements := billing.NewEntitlements(subscriptionRepo)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	availabilityHandler := handlers.NewAvailabilityHandler(availabilitySvc, logger, loc)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo, professionalRepo, patientRepo, outboxRepo, availabilitySvc, entitlements, logger, loc)
	blockedTimeHandler := handlers.NewBlockedTimeHandler(blockedTimeRepo, logger, loc)
	professionalHandler := handlers.NewProfessionalHandler(professionalRepo, logger)
	patientHandler := handlers.NewPatientHandler(patientRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardRepo, logger, loc)
	billingHandler := handlers.NewBillingHandler(subscriptionRepo, entitlements, logger,
		config.String("STRIPE_WEBHOOK_SECRET", ""),
		time.Duration(config.Int("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300))*time.Second,
	)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/available-times", availabilityHandler.AvailableTimes)
	mux.HandleFunc("/api/v1/appointments", appointmentHandler.List)
	mux.HandleFunc("/api/v1/appointments/create", appointmentHandler.Create)
	mux.HandleFunc("/api/v1/appointments/cancel", appointmentHandler.Cancel)
	mux.HandleFunc("/api/v1/blocked-times", blockedTimeHandler.List)
	mux.HandleFunc("/api/v1/blocked-times/create", blockedTimeHandler.Create)
	mux.HandleFunc("/api/v1/blocked-times/delete", blockedTimeHandler.Delete)
	mux.HandleFunc("/api/v1/professionals", professionalHandler.List)
	mux.HandleFunc("/api/v1/professionals/profile", professionalHandler.Get)
	mux.HandleFunc("/api/v1/professionals/profile/upsert", professionalHandler.Upsert)
	mux.HandleFunc("/api/v1/patients", patientHandler.List)
	mux.HandleFunc("/api/v1/patients/upsert", patientHandler.Upsert)
	mux.HandleFunc("/api/v1/patients/delete", patientHandler.Delete)
	mux.HandleFunc("/api/v1/dashboard", dashboardHandler.Summary)
	mux.HandleFunc("/api/v1/billing/subscription", billingHandler.Subscription)
	mux.HandleFunc("/api/v1/public/stripe/webhook", billingHandler.StripeWebhook)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinic")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
