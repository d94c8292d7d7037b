// Package notification delivers missed-dose alerts to caregiver devices.
// Delivery is best-effort: a failed push never fails the sweep that
// produced the alert, the alert row itself is the source of truth.
package notification

import (
	"context"

	"github.com/gregdel/pushover"
	"github.com/rs/zerolog"
)

// Pusher sends a short message to one recipient device key.
type Pusher interface {
	Push(ctx context.Context, deviceKey, title, message string) error
}

// PushoverPusher delivers messages through the Pushover API. The application
// token comes from config; each caregiver connection stores its own
// recipient key.
type PushoverPusher struct {
	app *pushover.Pushover
}

func NewPushoverPusher(appToken string) *PushoverPusher {
	return &PushoverPusher{app: pushover.New(appToken)}
}

func (p *PushoverPusher) Push(ctx context.Context, deviceKey, title, message string) error {
	recipient := pushover.NewRecipient(deviceKey)
	msg := pushover.NewMessageWithTitle(message, title)
	_, err := p.app.SendMessage(msg, recipient)
	return err
}

// LogPusher is the fallback when no Pushover token is configured. It records
// the would-be push so operators can see the pipeline working.
type LogPusher struct {
	logger zerolog.Logger
}

func NewLogPusher(logger zerolog.Logger) *LogPusher {
	return &LogPusher{logger: logger}
}

func (p *LogPusher) Push(_ context.Context, deviceKey, title, message string) error {
	p.logger.Info().
		Str("device_key", deviceKey).
		Str("title", title).
		Str("message", message).
		Msg("push delivery skipped (no provider configured)")
	return nil
}
