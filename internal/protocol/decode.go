package protocol

import (
	"errors"
	"fmt"
)

// ErrUnknownType marks an envelope whose type has no decoder. Callers drop
// such envelopes instead of failing: bridges under active development may
// emit event types this build does not know yet.
var ErrUnknownType = errors.New("unknown envelope type")

// Event is the closed sum of decoded inbound events. Exactly one concrete
// type exists per entry in the inbound catalog.
type Event interface {
	eventType() string
}

// AuthQREvent carries a fresh QR code for pairing.
type AuthQREvent struct{ AuthQR }

// AuthCodeNeededEvent asks for a verification code.
type AuthCodeNeededEvent struct{ AuthCodeNeeded }

// AuthPhoneNeededEvent asks for the user's phone number.
type AuthPhoneNeededEvent struct{}

// AuthSuccessEvent reports completed authentication.
type AuthSuccessEvent struct{ AuthSuccess }

// ChatListEvent is a full chat directory snapshot.
type ChatListEvent struct{ Chats []Chat }

// ChatMessagesEvent is a full history batch for one chat.
type ChatMessagesEvent struct{ Messages []Message }

// MessageNewEvent is a live message delivery.
type MessageNewEvent struct{ Message }

// StatusEvent reports the bridge connection status.
type StatusEvent struct{ Status string }

func (AuthQREvent) eventType() string { return TypeAuthQR }
func (AuthCodeNeededEvent) eventType() string { return TypeAuthCodeNeeded }
func (AuthPhoneNeededEvent) eventType() string { return TypeAuthPhoneNeeded }
func (AuthSuccessEvent) eventType() string { return TypeAuthSuccess }
func (ChatListEvent) eventType() string { return TypeChatsList }
func (ChatMessagesEvent) eventType() string { return TypeChatMessages }
func (MessageNewEvent) eventType() string { return TypeMessageNew }
func (StatusEvent) eventType() string { return TypeStatus }

// DecodeEvent validates an inbound envelope's payload against its type's
// schema and decodes it into the matching Event variant. Returns
// ErrUnknownType for types outside the inbound catalog.
func DecodeEvent(env Envelope) (Event, error) {
	if err := ValidatePayload(env); err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeAuthQR:
		var d AuthQR
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return AuthQREvent{d}, nil
	case TypeAuthCodeNeeded:
		var d AuthCodeNeeded
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return AuthCodeNeededEvent{d}, nil
	case TypeAuthPhoneNeeded:
		return AuthPhoneNeededEvent{}, nil
	case TypeAuthSuccess:
		var d AuthSuccess
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return AuthSuccessEvent{d}, nil
	case TypeChatsList:
		var d ChatListResponse
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return ChatListEvent{Chats: d.Chats}, nil
	case TypeChatMessages:
		var d ChatMessagesResponse
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return ChatMessagesEvent{Messages: d.Messages}, nil
	case TypeMessageNew:
		var d Message
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return MessageNewEvent{d}, nil
	case TypeStatus:
		var d StatusData
		if err := ParseData(env, &d); err != nil {
			return nil, decodeErr(env.Type, err)
		}
		return StatusEvent{Status: d.Status}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeErr(msgType string, err error) error {
	return fmt.Errorf("decode %s payload: %w", msgType, err)
}
