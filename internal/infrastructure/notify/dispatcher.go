package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/contact"
	"github.com/sethvargo/go-retry"
)

// Mailer is satisfied by the SMTP mailer.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is satisfied by the SNS sender.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Dispatcher delivers one-time codes over email or SMS with bounded retries.
type Dispatcher struct {
	mailer  Mailer
	sms     SMSSender
	backoff func() retry.Backoff
}

func NewDispatcher(mailer Mailer, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		sms:    sms,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(200 * time.Millisecond)
			b = retry.WithCappedDuration(2*time.Second, b)
			return retry.WithMaxRetries(3, b)
		},
	}
}

// SendCode renders and delivers a code. Every provider error is retried
// until the backoff is exhausted or ctx ends.
func (d *Dispatcher) SendCode(ctx context.Context, c domain.Contact, purpose domain.OTPPurpose, locale domain.Locale, code string, ttl time.Duration) error {
	msg := CodeMessage(c.Kind, purpose, locale, code, ttl)

	var send func(ctx context.Context) error
	switch c.Kind {
	case domain.ContactEmail:
		send = func(ctx context.Context) error { return d.mailer.SendEmail(ctx, c.Value, msg.Subject, msg.Body) }
	case domain.ContactPhone:
		if d.sms == nil {
			return fmt.Errorf("sms delivery is not configured: %w", domain.ErrBadRequest)
		}
		send = func(ctx context.Context) error { return d.sms.SendSMS(ctx, c.Value, msg.Body) }
	default:
		return fmt.Errorf("unsupported contact kind %q: %w", c.Kind, domain.ErrBadRequest)
	}

	attempt := 0
	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attempt++
		if err := send(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			slog.Warn("code delivery failed", "channel", c.Kind, "contact", contact.Mask(c.Value), "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deliver code via %s: %w", c.Kind, err)
	}
	return nil
}
