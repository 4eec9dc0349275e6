package email

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 5 * time.Second

var ErrNoRecipient = errors.New("email recipient is required")

// Deliver sends message to recipient using from as the sender override. The
// send runs on a context detached from ctx's cancellation with its own
// timeout, so request-scoped callers can hand off safely.
func Deliver(ctx context.Context, client EmailSender, recipient string, message Message, from string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return ErrNoRecipient
	}
	sendCtx, cancel := newEmailContext(ctx, sendTimeout)
	defer cancel()
	if strings.TrimSpace(from) == "" {
		return client.Send(sendCtx, recipient, message.Subject, message.Body)
	}
	return client.SendFrom(sendCtx, recipient, message.Subject, message.Body, from)
}

// SendAsync delivers message in a new goroutine and logs the outcome.
func SendAsync(ctx context.Context, client EmailSender, recipient string, message Message, from string, logger *zerolog.Logger) {
	if client == nil || message.Subject == "" || message.Body == "" || strings.TrimSpace(recipient) == "" {
		return
	}

	go func() {
		if err := Deliver(ctx, client, recipient, message, from); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("subject", message.Subject).Msg("Failed to send email")
			}
			return
		}
		if logger != nil {
			logger.Info().Str("subject", message.Subject).Msg("Email sent")
		}
	}()
}
