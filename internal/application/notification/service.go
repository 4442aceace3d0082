// Package notification delivers best-effort user notifications. Sends run in
// the background; failures are logged and never reported to the caller.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gym-api/internal/infrastructure/smtp"
	"github.com/gym-api/internal/infrastructure/sns"
)

// Notifier is the fire-and-forget capability the flows depend on.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string)
	NotifySMS(ctx context.Context, phone, body string)
}

const sendTimeout = 30 * time.Second

// Dispatcher runs each send in its own goroutine, bounded by maxInflight.
// When the bound is reached the message is dropped with a warning.
type Dispatcher struct {
	mailer smtp.Mailer
	sms    sns.SMSSender // nil disables SMS

	sema   chan struct{}
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(mailer smtp.Mailer, sms sns.SMSSender, maxInflight int) *Dispatcher {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Dispatcher{
		mailer: mailer,
		sms:    sms,
		sema:   make(chan struct{}, maxInflight),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, to, subject, body string) {
	d.dispatch(ctx, "email", func(context.Context) error {
		return d.mailer.SendEmail(to, subject, body)
	})
}

func (d *Dispatcher) NotifySMS(ctx context.Context, phone, body string) {
	if d.sms == nil {
		return
	}
	d.dispatch(ctx, "sms", func(ctx context.Context) error {
		return d.sms.SendSMS(ctx, phone, body)
	})
}

// dispatch detaches from the request context so the send outlives the response.
func (d *Dispatcher) dispatch(ctx context.Context, channel string, send func(context.Context) error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		slog.WarnContext(ctx, "notifier closed, dropping message", "channel", channel)
		return
	}
	select {
	case d.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "notifier saturated, dropping message", "channel", channel)
		return
	}
	bg := context.WithoutCancel(ctx)
	d.wg.Go(func() {
		defer func() { <-d.sema }()
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(bg, "notification send panicked", "channel", channel, "panic", r)
			}
		}()
		sendCtx, cancel := context.WithTimeout(bg, sendTimeout)
		defer cancel()
		if err := send(sendCtx); err != nil {
			slog.WarnContext(bg, "notification send failed", "channel", channel, "err", err)
		}
	})
}

// Close stops accepting messages and waits for in-flight sends or ctx, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
