package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func rawEnvelope(t *testing.T, msgType string, data any) Envelope {
	t.Helper()
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatal(err)
		}
		env.Data = raw
	}
	return env
}

func TestDecodeEventVariants(t *testing.T) {
	tests := []struct {
		msgType string
		data    any
		check   func(t *testing.T, ev Event)
	}{
		{TypeAuthQR, AuthQR{Code: "qr-data"}, func(t *testing.T, ev Event) {
			e, ok := ev.(AuthQREvent)
			if !ok || e.Code != "qr-data" {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeAuthCodeNeeded, AuthCodeNeeded{PhoneHint: "+1•••0000"}, func(t *testing.T, ev Event) {
			e, ok := ev.(AuthCodeNeededEvent)
			if !ok || e.PhoneHint != "+1•••0000" {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeAuthPhoneNeeded, nil, func(t *testing.T, ev Event) {
			if _, ok := ev.(AuthPhoneNeededEvent); !ok {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeAuthSuccess, AuthSuccess{User: "alice"}, func(t *testing.T, ev Event) {
			e, ok := ev.(AuthSuccessEvent)
			if !ok || e.User != "alice" {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeChatsList, ChatListResponse{Chats: []Chat{{ID: "a", Name: "A"}}}, func(t *testing.T, ev Event) {
			e, ok := ev.(ChatListEvent)
			if !ok || len(e.Chats) != 1 || e.Chats[0].ID != "a" {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeChatMessages, ChatMessagesResponse{Messages: []Message{{ID: "m1", ChatID: "a"}}}, func(t *testing.T, ev Event) {
			e, ok := ev.(ChatMessagesEvent)
			if !ok || len(e.Messages) != 1 {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeMessageNew, Message{ID: "m1", ChatID: "a", Text: "hi", Timestamp: 5}, func(t *testing.T, ev Event) {
			e, ok := ev.(MessageNewEvent)
			if !ok || e.ID != "m1" || e.Timestamp != 5 {
				t.Errorf("event = %#v", ev)
			}
		}},
		{TypeStatus, StatusData{Status: StatusAuthNeeded}, func(t *testing.T, ev Event) {
			e, ok := ev.(StatusEvent)
			if !ok || e.Status != StatusAuthNeeded {
				t.Errorf("event = %#v", ev)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			ev, err := DecodeEvent(rawEnvelope(t, tt.msgType, tt.data))
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			tt.check(t, ev)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodeEvent(Envelope{Type: "unknown.future_event"})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("error = %v, want ErrUnknownType", err)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"auth.qr without code", rawEnvelope(t, TypeAuthQR, map[string]any{})},
		{"auth.qr with non-string code", rawEnvelope(t, TypeAuthQR, map[string]any{"code": 42})},
		{"auth.success without user", rawEnvelope(t, TypeAuthSuccess, map[string]any{"phone": "+1"})},
		{"chats.list without chats", rawEnvelope(t, TypeChatsList, map[string]any{})},
		{"chats.list with scalar chats", rawEnvelope(t, TypeChatsList, map[string]any{"chats": 7})},
		{"chat in list without id", rawEnvelope(t, TypeChatsList, map[string]any{
			"chats": []map[string]any{{"name": "No ID"}},
		})},
		{"message.new without id", rawEnvelope(t, TypeMessageNew, map[string]any{"chat_id": "a"})},
		{"message.new with empty id", rawEnvelope(t, TypeMessageNew, map[string]any{"id": "", "chat_id": "a"})},
		{"status outside enum", rawEnvelope(t, TypeStatus, map[string]any{"status": "on_fire"})},
		{"status missing payload", Envelope{Type: TypeStatus}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeEvent(tt.env); err == nil {
				t.Error("DecodeEvent() accepted a malformed payload")
			}
		})
	}
}

func TestDecodeAllowsUnknownFields(t *testing.T) {
	// Forward compatibility: extra payload fields from newer bridges pass.
	env := rawEnvelope(t, TypeAuthQR, map[string]any{"code": "qr-data", "expires_in": 60})
	if _, err := DecodeEvent(env); err != nil {
		t.Errorf("DecodeEvent() error = %v", err)
	}
}

func TestDecodePhoneNeededWithNullData(t *testing.T) {
	env := Envelope{Type: TypeAuthPhoneNeeded, Data: json.RawMessage("null")}
	if _, err := DecodeEvent(env); err != nil {
		t.Errorf("DecodeEvent() error = %v", err)
	}
}
