// Package protocol defines the envelope contract shared with the bridge
// processes: the JSON-lines wire format, the payload shapes for every
// event and command type, and the typed decode used by the dispatcher.
package protocol

import "encoding/json"

// Envelope is the uniform wrapper for inbound events and outbound commands.
// Type is a dotted namespace ("domain.action") and is the sole
// discriminator for Data's shape. ID is reserved for request/response
// correlation; it is stamped on outbound commands and never consumed by
// any inbound handler.
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound event types emitted by bridges.
const (
	TypeAuthQR          = "auth.qr"
	TypeAuthCodeNeeded  = "auth.code_needed"
	TypeAuthPhoneNeeded = "auth.phone_needed"
	TypeAuthSuccess     = "auth.success"
	TypeChatsList       = "chats.list"
	TypeChatMessages    = "chat.messages"
	TypeMessageNew      = "message.new"
	TypeStatus          = "status"
)

// Outbound command types accepted by bridges.
const (
	TypeStatusGet   = "status.get"
	TypeAuthStart   = "auth.start"
	TypeAuthPhone   = "auth.phone"
	TypeAuthCode    = "auth.code"
	TypeMessageSend = "message.send"
)

// Chat is a conversation summary. Identity key is ID within one service;
// IDs are not globally unique across services.
type Chat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unread"`
	LastMessage string `json:"last_message,omitempty"`
	LastTime    int64  `json:"last_time,omitempty"`
	IsGroup     bool   `json:"is_group"`
}

// Message is a single message in a conversation. Identity key is ID within
// the (service, chat_id) scope.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	FromMe    bool   `json:"from_me"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	ImagePath string `json:"image_path,omitempty"`
}

// AuthQR carries a QR code ready for scanning. A fresh auth.qr replaces
// any previously displayed code; expiry is the bridge's concern.
type AuthQR struct {
	Code string `json:"code"`
}

// AuthCodeNeeded asks for the verification code sent to the hinted phone.
type AuthCodeNeeded struct {
	PhoneHint string `json:"phone_hint"`
}

// AuthSuccess reports completed authentication.
type AuthSuccess struct {
	User  string `json:"user"`
	Phone string `json:"phone,omitempty"`
}

// AuthPhone submits the user's phone number.
type AuthPhone struct {
	Phone string `json:"phone"`
}

// AuthCode submits the verification code.
type AuthCode struct {
	Code string `json:"code"`
}

// ChatMessagesRequest asks a bridge for a chat's history.
type ChatMessagesRequest struct {
	ChatID string `json:"chat_id"`
	Limit  int    `json:"limit,omitempty"`
}

// SendMessageRequest asks a bridge to deliver a text message.
type SendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// ChatListResponse wraps the full chat snapshot for chats.list events.
type ChatListResponse struct {
	Chats []Chat `json:"chats"`
}

// ChatMessagesResponse wraps a history batch for chat.messages events.
type ChatMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// Connection status values reported by bridges.
const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusAuthNeeded   = "auth_needed"
	StatusConnected    = "connected"
)

// StatusData reports a bridge's connection status.
type StatusData struct {
	Status string `json:"status"`
}
