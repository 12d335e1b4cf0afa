// Package dispatch routes inbound bridge envelopes into the view state.
// Dispatch is total over envelope types: catalog types mutate exactly one
// service's slice, everything else is dropped without effect so bridges
// can ship new event types before this client knows them.
package dispatch

import (
	"errors"

	"github.com/aigustalabs/switchboard/internal/auth"
	"github.com/aigustalabs/switchboard/internal/notify"
	"github.com/aigustalabs/switchboard/internal/protocol"
	"github.com/aigustalabs/switchboard/internal/view"
	"go.uber.org/zap"
)

// imagePlaceholder is the notification body for messages without text.
const imagePlaceholder = "(image)"

// Dispatcher applies inbound envelopes to the view and raises
// notifications for incoming messages.
type Dispatcher struct {
	view     *view.View
	notifier notify.Notifier
	logger   *zap.Logger
}

// New creates a dispatcher.
func New(v *view.View, n notify.Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{view: v, notifier: n, logger: logger}
}

// OnEnvelope is the single inbound entry point. Envelopes for one service
// must be delivered in transport order; no ordering is assumed across
// services.
func (d *Dispatcher) OnEnvelope(service protocol.ServiceID, env protocol.Envelope) {
	ev, err := protocol.DecodeEvent(env)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			d.logger.Debug("ignoring unknown envelope type",
				zap.String("service", service.String()),
				zap.String("type", env.Type),
			)
			return
		}
		d.logger.Warn("dropping malformed envelope",
			zap.String("service", service.String()),
			zap.String("type", env.Type),
			zap.Error(err),
		)
		return
	}

	switch e := ev.(type) {
	case protocol.AuthQREvent:
		d.applyAuth(service, auth.QR(e.Code))
	case protocol.AuthPhoneNeededEvent:
		d.applyAuth(service, auth.PhonePending())
	case protocol.AuthCodeNeededEvent:
		d.applyAuth(service, auth.CodePending(e.PhoneHint))
	case protocol.AuthSuccessEvent:
		d.applyAuth(service, auth.Authenticated(e.User))
	case protocol.ChatListEvent:
		d.view.ReplaceChats(service, e.Chats)
	case protocol.ChatMessagesEvent:
		if len(e.Messages) == 0 {
			return
		}
		d.view.ReplaceMessages(service, e.Messages[0].ChatID, e.Messages)
	case protocol.MessageNewEvent:
		d.handleMessageNew(service, e.Message)
	case protocol.StatusEvent:
		d.view.SetStatus(service, e.Status)
	}
}

func (d *Dispatcher) applyAuth(service protocol.ServiceID, next auth.State) {
	if err := d.view.ApplyAuth(service, next); err != nil {
		d.logger.Warn("dropping out-of-order auth event",
			zap.String("service", service.String()),
			zap.String("step", string(next.Step)),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) handleMessageNew(service protocol.ServiceID, msg protocol.Message) {
	appended := d.view.AppendMessage(service, msg)
	if !appended || msg.FromMe {
		return
	}

	body := msg.Text
	if body == "" {
		body = imagePlaceholder
	}
	// Fire-and-forget: the sink gives no delivery confirmation.
	d.notifier.Notify(notify.Notification{
		Title: service.Display() + ": " + msg.From,
		Body:  body,
	})
}
