package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mrudenko/user-management-api/config"
	"github.com/mrudenko/user-management-api/pkg/events"
	"github.com/mrudenko/user-management-api/pkg/mailer"
)

// Consumes user lifecycle events from RabbitMQ and emails the operations
// address about the ones worth a human look (account created, account
// revoked). Everything else is just logged.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	var mail *mailer.Mailgun
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" || cfg.AdminEmail == "" {
			log.Fatal("Mailgun not configured")
		}
		mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		log.Println("MAIL_SEND_ENABLED=false; notifier will only log events")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEventQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev events.UserEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			log.Printf("event type=%s login=%s actor=%s", ev.Type, ev.Login, ev.Actor)

			if mail != nil && notifiable(ev.Type) {
				subject, text := renderMail(ev)
				c, cancel := context.WithTimeout(ctx, 15*time.Second)
				if err := mail.Send(c, cfg.AdminEmail, subject, text); err != nil {
					cancel()
					log.Printf("send failed: %v", err)
					_ = msg.Nack(false, true)
					continue
				}
				cancel()
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	log.Printf("notifier listening on queue=%s", cfg.RabbitMQEventQueue)
	<-stop
	log.Printf("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func notifiable(eventType string) bool {
	switch eventType {
	case events.UserCreated, events.UserRevoked, events.UserDeleted:
		return true
	}
	return false
}

func renderMail(ev events.UserEvent) (subject, text string) {
	subject = fmt.Sprintf("[user-management] %s: %s", ev.Type, ev.Login)
	text = fmt.Sprintf("Event:  %s\nUser:   %s\nActor:  %s\nAt:     %s\n",
		ev.Type, ev.Login, ev.Actor, ev.At.Format(time.RFC3339))
	for k, v := range ev.Details {
		text += fmt.Sprintf("%s: %s\n", k, v)
	}
	return subject, text
}
