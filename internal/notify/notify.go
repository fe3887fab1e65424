// Package notify delivers customer notifications. Transport is pluggable;
// the default sender only writes them to the log.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender records messages through zerolog instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notify").Logger()}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("notify: message %q has no recipient", msg.Subject)
	}
	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("body_bytes", len(msg.Body)).Msg("Notification sent")
	return nil
}

// Discard drops every message.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }

func OrderConfirmation(to, name, orderNumber, total string) Message {
	return Message{
		To:      to,
		Subject: "Order Confirmation - " + orderNumber,
		Body: fmt.Sprintf(
			"Hi %s,\n\nThank you for your order %s.\nOrder total: $%s\n\nWe will let you know when it ships.\n",
			name, orderNumber, total),
	}
}

func Welcome(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to the store!",
		Body:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Happy shopping!\n", name),
	}
}

var _ Sender = (*LogSender)(nil)
