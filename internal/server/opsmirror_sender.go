package server

import (
	"context"

	"anonrelay/internal/gateway"
	"anonrelay/internal/notifications"
)

// opsMirrorSender decorates a gateway.Sender so every moderator-channel
// mirror (relay forwards, spam-strike notices, user reports) is
// also published to the ops-dashboard live feed — the same payload, one
// extra fan-out target, so connected operators see mirrors in real time
// without polling /ops/export.
type opsMirrorSender struct {
	gateway.Sender
	notifier *notifications.Notifier
}

// SendToModerator mirrors text to the wrapped Sender and, best-effort, to
// every connected ops-dashboard client.
func (s opsMirrorSender) SendToModerator(ctx context.Context, text string) error {
	err := s.Sender.SendToModerator(ctx, text)
	_ = s.notifier.PublishBroadcast(ctx, text)
	return err
}
