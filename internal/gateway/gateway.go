// Package gateway validates and serializes outbound intents into
// envelopes for the bridge transport. Sends resolve on transport
// acceptance; there is no end-to-end acknowledgment, the bridge answers
// with ordinary inbound events.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport delivers envelopes to a service's bridge process.
type Transport interface {
	Send(ctx context.Context, service protocol.ServiceID, env protocol.Envelope) error
}

// ErrUnknownCommand marks an outbound type outside the command catalog.
var ErrUnknownCommand = errors.New("unknown command type")

// ErrInvalidCommand marks a command with a missing required field.
var ErrInvalidCommand = errors.New("invalid command")

// commandTypes is the outbound catalog. chats.list and chat.messages
// double as request types; the bridge answers with the same type inbound.
var commandTypes = map[string]bool{
	protocol.TypeStatusGet:    true,
	protocol.TypeAuthStart:    true,
	protocol.TypeAuthPhone:    true,
	protocol.TypeAuthCode:     true,
	protocol.TypeChatsList:    true,
	protocol.TypeChatMessages: true,
	protocol.TypeMessageSend:  true,
}

// Gateway is the single outbound entry point.
type Gateway struct {
	transport Transport
	logger    *zap.Logger
}

// New creates a gateway over the given transport.
func New(transport Transport, logger *zap.Logger) *Gateway {
	return &Gateway{transport: transport, logger: logger}
}

// SendCommand validates the envelope, stamps a correlation id, and hands
// it to the transport. A transport failure is logged and returned; it
// never mutates view state, since a failed send is not a disconnect.
func (g *Gateway) SendCommand(ctx context.Context, service protocol.ServiceID, env protocol.Envelope) error {
	if !commandTypes[env.Type] {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
	if env.ID == "" {
		// Reserved for correlation; bridges echo it, no handler reads it.
		env.ID = uuid.NewString()
	}

	if err := g.transport.Send(ctx, service, env); err != nil {
		g.logger.Error("command send failed",
			zap.String("service", service.String()),
			zap.String("type", env.Type),
			zap.Error(err),
		)
		return fmt.Errorf("send %s to %s: %w", env.Type, service, err)
	}
	return nil
}

func marshalData(data any) (json.RawMessage, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal command data: %w", err)
	}
	return b, nil
}

func (g *Gateway) sendTyped(ctx context.Context, service protocol.ServiceID, msgType string, data any) error {
	env := protocol.Envelope{Type: msgType}
	if data != nil {
		raw, err := marshalData(data)
		if err != nil {
			return err
		}
		env.Data = raw
	}
	return g.SendCommand(ctx, service, env)
}

// RequestStatus asks a bridge to report its connection status.
func (g *Gateway) RequestStatus(ctx context.Context, service protocol.ServiceID) error {
	return g.sendTyped(ctx, service, protocol.TypeStatusGet, nil)
}

// StartAuth begins (or restarts) a service's auth flow. Issuing a new
// start is the only way to abandon an in-flight flow; the latest inbound
// auth event wins.
func (g *Gateway) StartAuth(ctx context.Context, service protocol.ServiceID) error {
	return g.sendTyped(ctx, service, protocol.TypeAuthStart, nil)
}

// SubmitPhone sends the user's phone number for a phone-based flow.
func (g *Gateway) SubmitPhone(ctx context.Context, service protocol.ServiceID, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: auth.phone requires a phone number", ErrInvalidCommand)
	}
	return g.sendTyped(ctx, service, protocol.TypeAuthPhone, protocol.AuthPhone{Phone: phone})
}

// SubmitCode sends the verification code.
func (g *Gateway) SubmitCode(ctx context.Context, service protocol.ServiceID, code string) error {
	if code == "" {
		return fmt.Errorf("%w: auth.code requires a code", ErrInvalidCommand)
	}
	return g.sendTyped(ctx, service, protocol.TypeAuthCode, protocol.AuthCode{Code: code})
}

// RequestChats asks for a full chat directory snapshot.
func (g *Gateway) RequestChats(ctx context.Context, service protocol.ServiceID) error {
	return g.sendTyped(ctx, service, protocol.TypeChatsList, nil)
}

// RequestMessages asks for a chat's history.
func (g *Gateway) RequestMessages(ctx context.Context, service protocol.ServiceID, chatID string, limit int) error {
	if chatID == "" {
		return fmt.Errorf("%w: chat.messages requires a chat id", ErrInvalidCommand)
	}
	return g.sendTyped(ctx, service, protocol.TypeChatMessages, protocol.ChatMessagesRequest{
		ChatID: chatID,
		Limit:  limit,
	})
}

// SendText asks a bridge to deliver a text message. Delivery shows up
// later as an inbound message.new with from_me set.
func (g *Gateway) SendText(ctx context.Context, service protocol.ServiceID, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("%w: message.send requires a chat id", ErrInvalidCommand)
	}
	if text == "" {
		return fmt.Errorf("%w: message.send requires text", ErrInvalidCommand)
	}
	return g.sendTyped(ctx, service, protocol.TypeMessageSend, protocol.SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
}
