package main

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/shield-staffing/shield/backend/internal/config"
	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/notifier"
)

// templateFiles maps a notification kind to the email template and subject
// used to render it.
var templateFiles = map[string]struct {
	Path    string
	Subject string
}{
	domain.NotificationKindShiftAssigned: {
		Path:    "./templates/shift_assigned_email.html",
		Subject: "Shield - Shift confirmed",
	},
	domain.NotificationKindOfferReceived: {
		Path:    "./templates/offer_received_email.html",
		Subject: "Shield - New shift offer",
	},
	domain.NotificationKindNewAccount: {
		Path:    "./templates/new_account_email.html",
		Subject: "Shield - Your account",
	},
	domain.NotificationKindResetPassword: {
		Path:    "./templates/reset_password_otp_email.html",
		Subject: "Shield - Reset your password",
	},
}

func main() {
	/**********************************************
	 * set up logging
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * load config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * create the mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("cannot create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// confirm the SMTP credentials work before consuming anything
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("cannot connect to mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * connect to rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("cannot connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("cannot open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		notifier.Queue, // queue name
		true,           // durable
		false,          // auto-delete, false so the queue survives having no consumers
		false,          // exclusive
		false,          // no-wait, false so rabbitmq confirms the declaration
		nil,            // extra args
	)
	if err != nil {
		logger.Error("cannot declare queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	/**********************************************
	 * consume messages
	 **********************************************/
	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag, empty so rabbitmq assigns one
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local, must stay false since rabbitmq does not support it
		false,  // no-wait
		nil,    // extra args
	)
	if err != nil {
		logger.Error("cannot consume messages", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("message received", slog.String("message", string(msg.Body)))

				notification := domain.NotificationMessage{}
				if err := json.Unmarshal(msg.Body, &notification); err != nil {
					logger.Error("cannot decode notification", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				email := mail.NewMsg()
				if err := email.From(cfg.Email.SMTP.Username); err != nil {
					logger.Error("cannot set sender", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := email.To(notification.To); err != nil {
					logger.Error("cannot set recipient", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				tf, ok := templateFiles[notification.Kind]
				if !ok {
					logger.Error("unsupported notification kind", slog.String("kind", notification.Kind))
					_ = msg.Nack(false, false)
					continue
				}

				tmpl, err := template.ParseFiles(tf.Path)
				if err != nil {
					logger.Error("cannot parse email template", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := email.SetBodyHTMLTemplate(tmpl, notification.Payload); err != nil {
					logger.Error("cannot render email body", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				email.Subject(tf.Subject)

				if err := client.DialAndSend(email); err != nil {
					logger.Error("cannot send email", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // requeue, the broker or mail server may recover
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for messages... (CTRL+C to exit)")
	<-sigChan

	slog.Info("shutting down notifier worker...")
	cancel()
	wg.Wait()
	slog.Info("notifier worker stopped")
}
