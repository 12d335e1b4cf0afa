// switchboard-mock is a scripted bridge speaking the envelope protocol on
// stdio. It stands in for a real bridge binary during development: point a
// service's command at it and exercise auth, chat sync, and messaging
// without touching a real account.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"github.com/google/uuid"
)

type mockBridge struct {
	writer *protocol.Writer
	flow   string // "phone" or "qr"
	user   string
	authed bool
}

func main() {
	flowFlag := flag.String("flow", "phone", "auth flow to simulate: phone or qr")
	userFlag := flag.String("user", "mock", "user name reported on auth success")
	flag.Parse()

	// Keep stdout clean for the protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ltime | log.Lshortfile)

	b := &mockBridge{
		writer: protocol.NewWriter(os.Stdout),
		flow:   *flowFlag,
		user:   *userFlag,
	}

	b.emit(protocol.TypeStatus, "", protocol.StatusData{Status: protocol.StatusAuthNeeded})

	reader := protocol.NewReader(os.Stdin)
	for {
		env, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("read: %v", err)
			continue
		}
		b.handle(env)
	}
}

func (b *mockBridge) handle(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeStatusGet:
		status := protocol.StatusAuthNeeded
		if b.authed {
			status = protocol.StatusConnected
		}
		b.emit(protocol.TypeStatus, env.ID, protocol.StatusData{Status: status})

	case protocol.TypeAuthStart:
		// Each start re-issues the first step; in the qr flow that doubles
		// as a code refresh.
		if b.flow == "qr" {
			b.emit(protocol.TypeAuthQR, env.ID, protocol.AuthQR{Code: "MOCK-QR-" + uuid.NewString()})
			return
		}
		b.emit(protocol.TypeAuthPhoneNeeded, env.ID, struct{}{})

	case protocol.TypeAuthPhone:
		var req protocol.AuthPhone
		if err := protocol.ParseData(env, &req); err != nil {
			log.Printf("auth.phone: %v", err)
			return
		}
		b.emit(protocol.TypeAuthCodeNeeded, env.ID, protocol.AuthCodeNeeded{PhoneHint: maskPhone(req.Phone)})

	case protocol.TypeAuthCode:
		// Any code is accepted; this also completes the qr flow so the
		// whole auth path stays drivable from a terminal.
		b.authed = true
		b.emit(protocol.TypeAuthSuccess, env.ID, protocol.AuthSuccess{User: b.user})
		b.emit(protocol.TypeStatus, "", protocol.StatusData{Status: protocol.StatusConnected})

	case protocol.TypeChatsList:
		b.emit(protocol.TypeChatsList, env.ID, protocol.ChatListResponse{Chats: cannedChats()})

	case protocol.TypeChatMessages:
		var req protocol.ChatMessagesRequest
		if err := protocol.ParseData(env, &req); err != nil {
			log.Printf("chat.messages: %v", err)
			return
		}
		b.emit(protocol.TypeChatMessages, env.ID, protocol.ChatMessagesResponse{
			Messages: cannedMessages(req.ChatID),
		})

	case protocol.TypeMessageSend:
		var req protocol.SendMessageRequest
		if err := protocol.ParseData(env, &req); err != nil {
			log.Printf("message.send: %v", err)
			return
		}
		// Echo the delivery back the way a real bridge reports own sends.
		b.emit(protocol.TypeMessageNew, "", protocol.Message{
			ID:        uuid.NewString(),
			ChatID:    req.ChatID,
			From:      b.user,
			FromMe:    true,
			Text:      req.Text,
			Timestamp: time.Now().Unix(),
		})

	default:
		log.Printf("ignoring command %q", env.Type)
	}
}

func (b *mockBridge) emit(msgType, id string, data any) {
	if err := b.writer.SendTyped(msgType, id, data); err != nil {
		log.Printf("emit %s: %v", msgType, err)
	}
}

func cannedChats() []protocol.Chat {
	now := time.Now().Unix()
	return []protocol.Chat{
		{ID: "mock-1", Name: "Alice", UnreadCount: 2, LastMessage: "see you there", LastTime: now - 60},
		{ID: "mock-2", Name: "Bridge dev", IsGroup: true, LastMessage: "(media)", LastTime: now - 3600},
		{ID: "mock-3", Name: "Bob"},
	}
}

func cannedMessages(chatID string) []protocol.Message {
	now := time.Now().Unix()
	return []protocol.Message{
		{ID: chatID + "-m1", ChatID: chatID, From: "Alice", Text: "hey", Timestamp: now - 120},
		{ID: chatID + "-m2", ChatID: chatID, From: "mock", FromMe: true, Text: "hi!", Timestamp: now - 90},
		{ID: chatID + "-m3", ChatID: chatID, From: "Alice", Text: "see you there", Timestamp: now - 60},
	}
}

// maskPhone hides the middle digits of a phone number, keeping the
// country prefix and the last four digits.
func maskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone
	}
	return fmt.Sprintf("%s%s%s", phone[:2], strings.Repeat("•", 3), phone[len(phone)-4:])
}
