package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agendavel/agendavel/libs/config"
	"github.com/agendavel/agendavel/libs/db"
	"github.com/agendavel/agendavel/libs/httpx"
	"github.com/agendavel/agendavel/libs/kafkax"
	otelx "github.com/agendavel/agendavel/libs/otel"
	"github.com/agendavel/agendavel/libs/runtime"
	"github.com/agendavel/agendavel/services/notification-service/internal/consumer"
	"github.com/agendavel/agendavel/services/notification-service/internal/email"
	"github.com/agendavel/agendavel/services/notification-service/internal/inbox"
	"github.com/agendavel/agendavel/services/notification-service/internal/message"
	"github.com/agendavel/agendavel/services/notification-service/internal/outbox"
	"github.com/agendavel/agendavel/services/notification-service/internal/sms"
	"github.com/agendavel/agendavel/services/notification-service/internal/storage"
)

type appointmentEvent struct {
	AppointmentID  string    `json:"appointment_id"`
	ClinicID       string    `json:"clinic_id"`
	ProfessionalID string    `json:"professional_id"`
	PatientID      string    `json:"patient_id"`
	Time           time.Time `json:"time"`
	Reason         string    `json:"reason"`
	PatientEmail   string    `json:"patient_email"`
	PatientPhone   string    `json:"patient_phone"`
	ClinicName     string    `json:"clinic_name"`
}

func writeOutboxResult(ctx context.Context, pool *db.Pool, outboxRepo *outbox.Repository, evt appointmentEvent, channel, status, providerID, reason string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventType := outbox.TopicNotificationSent
	fields := map[string]any{
		"appointment_id": evt.AppointmentID,
		"clinic_id":      evt.ClinicID,
		"channel":        channel,
	}
	if status == "failed" {
		eventType = outbox.TopicNotificationFailed
		fields["error_reason"] = reason
		fields["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		if strings.TrimSpace(providerID) == "" {
			providerID = "unknown"
		}
		fields["provider_id"] = providerID
		fields["sent_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   evt.AppointmentID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@agendavel.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)
	emailProviderID := "smtp"

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}

	handle := func(ctx context.Context, msg kafka.Message) error {
		var evt appointmentEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid appointment event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.AppointmentID == "" || evt.ClinicID == "" {
			logger.Error("missing appointment event fields", "topic", msg.Topic)
			return nil
		}

		appt := message.Appointment{
			AppointmentID: evt.AppointmentID,
			ClinicName:    evt.ClinicName,
			At:            evt.Time,
			Location:      loc,
		}
		var subject, body string
		if msg.Topic == "appointments.cancelled.v1" {
			subject = message.CancelledSubject(appt)
			body = message.CancelledBody(appt, evt.Reason)
		} else {
			subject = message.BookedSubject(appt)
			body = message.BookedBody(appt)
		}

		deliver := func(channel, recipient string, send func() error) error {
			if strings.TrimSpace(recipient) == "" {
				return nil
			}
			status := "sent"
			providerID := ""
			reason := ""
			if err := send(); err != nil {
				status = "failed"
				reason = err.Error()
				logger.Error("notification send failed", "channel", channel, "recipient", recipient, "err", err)
			} else if channel == "email" {
				providerID = emailProviderID
			} else {
				providerID = smsSender.ProviderID()
			}

			if _, err := notificationsRepo.Insert(ctx, storage.Notification{
				AppointmentID: evt.AppointmentID,
				ClinicID:      evt.ClinicID,
				Channel:       channel,
				Recipient:     recipient,
				Payload:       map[string]any{"subject": subject, "body": body},
				Status:        status,
			}); err != nil {
				logger.Error("failed to persist notification", "err", err)
				return err
			}
			return writeOutboxResult(ctx, pool, outboxRepo, evt, channel, status, providerID, reason)
		}

		if err := deliver("email", evt.PatientEmail, func() error {
			return emailSender.Send(evt.PatientEmail, subject, body)
		}); err != nil {
			return err
		}
		if err := deliver("sms", evt.PatientPhone, func() error {
			return smsSender.Send(ctx, evt.PatientPhone, body)
		}); err != nil {
			return err
		}

		logger.Info("appointment event processed", "appointment_id", evt.AppointmentID, "topic", msg.Topic)
		return nil
	}

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handle)
		go eventConsumer.Run(ctx)
	}
	startConsumer(config.String("KAFKA_BOOKED_TOPIC", "appointments.booked.v1"))
	startConsumer(config.String("KAFKA_CANCELLED_TOPIC", "appointments.cancelled.v1"))

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
