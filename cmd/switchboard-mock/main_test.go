package main

import (
	"bytes"
	"testing"

	"github.com/aigustalabs/switchboard/internal/protocol"
)

func newTestBridge(flow string) (*mockBridge, *bytes.Buffer) {
	var buf bytes.Buffer
	return &mockBridge{
		writer: protocol.NewWriter(&buf),
		flow:   flow,
		user:   "mock",
	}, &buf
}

func drain(t *testing.T, buf *bytes.Buffer) []protocol.Envelope {
	t.Helper()
	reader := protocol.NewReader(bytes.NewReader(buf.Bytes()))
	var envs []protocol.Envelope
	for {
		env, err := reader.Read()
		if err != nil {
			return envs
		}
		envs = append(envs, env)
	}
}

func TestPhoneFlow(t *testing.T) {
	b, buf := newTestBridge("phone")

	b.handle(protocol.Envelope{Type: protocol.TypeAuthStart, ID: "c1"})
	b.handle(mustEnvelope(t, protocol.TypeAuthPhone, "c2", protocol.AuthPhone{Phone: "+5511999990000"}))
	b.handle(mustEnvelope(t, protocol.TypeAuthCode, "c3", protocol.AuthCode{Code: "123456"}))

	envs := drain(t, buf)
	want := []string{
		protocol.TypeAuthPhoneNeeded,
		protocol.TypeAuthCodeNeeded,
		protocol.TypeAuthSuccess,
		protocol.TypeStatus,
	}
	if len(envs) != len(want) {
		t.Fatalf("got %d envelopes, want %d", len(envs), len(want))
	}
	for i, env := range envs {
		if env.Type != want[i] {
			t.Errorf("envelope %d type = %q, want %q", i, env.Type, want[i])
		}
	}

	var hint protocol.AuthCodeNeeded
	if err := protocol.ParseData(envs[1], &hint); err != nil {
		t.Fatal(err)
	}
	if hint.PhoneHint == "+5511999990000" {
		t.Error("phone hint was not masked")
	}

	if !b.authed {
		t.Error("bridge not authed after code submission")
	}
}

func TestQRFlowRefreshesCode(t *testing.T) {
	b, buf := newTestBridge("qr")

	b.handle(protocol.Envelope{Type: protocol.TypeAuthStart, ID: "c1"})
	b.handle(protocol.Envelope{Type: protocol.TypeAuthStart, ID: "c2"})

	envs := drain(t, buf)
	if len(envs) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(envs))
	}
	var first, second protocol.AuthQR
	if err := protocol.ParseData(envs[0], &first); err != nil {
		t.Fatal(err)
	}
	if err := protocol.ParseData(envs[1], &second); err != nil {
		t.Fatal(err)
	}
	if first.Code == second.Code {
		t.Error("restarting auth should issue a fresh qr code")
	}
}

func TestStatusReflectsAuth(t *testing.T) {
	b, buf := newTestBridge("phone")

	b.handle(protocol.Envelope{Type: protocol.TypeStatusGet, ID: "c1"})
	b.authed = true
	b.handle(protocol.Envelope{Type: protocol.TypeStatusGet, ID: "c2"})

	envs := drain(t, buf)
	var before, after protocol.StatusData
	if err := protocol.ParseData(envs[0], &before); err != nil {
		t.Fatal(err)
	}
	if err := protocol.ParseData(envs[1], &after); err != nil {
		t.Fatal(err)
	}
	if before.Status != protocol.StatusAuthNeeded {
		t.Errorf("status before auth = %q, want %q", before.Status, protocol.StatusAuthNeeded)
	}
	if after.Status != protocol.StatusConnected {
		t.Errorf("status after auth = %q, want %q", after.Status, protocol.StatusConnected)
	}
}

func TestSendEchoesDelivery(t *testing.T) {
	b, buf := newTestBridge("phone")

	b.handle(mustEnvelope(t, protocol.TypeMessageSend, "c1", protocol.SendMessageRequest{
		ChatID: "mock-1",
		Text:   "on my way",
	}))

	envs := drain(t, buf)
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	if envs[0].Type != protocol.TypeMessageNew {
		t.Fatalf("type = %q, want %q", envs[0].Type, protocol.TypeMessageNew)
	}
	var msg protocol.Message
	if err := protocol.ParseData(envs[0], &msg); err != nil {
		t.Fatal(err)
	}
	if !msg.FromMe {
		t.Error("echoed delivery should be marked from_me")
	}
	if msg.ChatID != "mock-1" || msg.Text != "on my way" {
		t.Errorf("echoed delivery = %+v", msg)
	}
	if msg.ID == "" {
		t.Error("echoed delivery has no id")
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+5511999990000", "+5•••0000"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := maskPhone(tt.in); got != tt.want {
			t.Errorf("maskPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func mustEnvelope(t *testing.T, msgType, id string, data any) protocol.Envelope {
	t.Helper()
	var buf bytes.Buffer
	if err := protocol.NewWriter(&buf).SendTyped(msgType, id, data); err != nil {
		t.Fatal(err)
	}
	env, err := protocol.NewReader(&buf).Read()
	if err != nil {
		t.Fatal(err)
	}
	return env
}
