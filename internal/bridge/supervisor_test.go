package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"go.uber.org/zap"
)

// fakeConn is an in-memory bridge connection scripted by the test.
type fakeConn struct {
	in chan protocol.Envelope

	mu   sync.Mutex
	sent []protocol.Envelope
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan protocol.Envelope, 16)}
}

func (c *fakeConn) emit(env protocol.Envelope) { c.in <- env }
func (c *fakeConn) die()                       { close(c.in) }

func (c *fakeConn) send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeConn) read() (protocol.Envelope, error) {
	env, ok := <-c.in
	if !ok {
		return protocol.Envelope{}, io.EOF
	}
	return env, nil
}

func (c *fakeConn) close() {}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// recordingHandler collects dispatched envelopes.
type recordingHandler struct {
	mu   sync.Mutex
	got  []dispatched
	cond chan struct{}
}

type dispatched struct {
	Service protocol.ServiceID
	Env     protocol.Envelope
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{cond: make(chan struct{}, 64)}
}

func (h *recordingHandler) OnEnvelope(service protocol.ServiceID, env protocol.Envelope) {
	h.mu.Lock()
	h.got = append(h.got, dispatched{Service: service, Env: env})
	h.mu.Unlock()
	h.cond <- struct{}{}
}

func (h *recordingHandler) waitFor(t *testing.T, n int) []dispatched {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		h.mu.Lock()
		if len(h.got) >= n {
			out := append([]dispatched(nil), h.got...)
			h.mu.Unlock()
			return out
		}
		h.mu.Unlock()
		select {
		case <-h.cond:
		case <-deadline:
			t.Fatalf("timeout waiting for %d envelopes", n)
		}
	}
}

func testSupervisor(t *testing.T) (*Supervisor, *recordingHandler, chan *fakeConn) {
	t.Helper()
	h := newRecordingHandler()
	cfgs := map[protocol.ServiceID]ServiceConfig{
		protocol.WhatsApp: {Enabled: true, Transport: TransportStdio, Command: "unused"},
	}
	s := NewSupervisor(cfgs, h, zap.NewNop())
	s.restart = 10 * time.Millisecond

	conns := make(chan *fakeConn, 4)
	s.connect = func(_ context.Context, _ *bridgeState) (conn, error) {
		c := newFakeConn()
		conns <- c
		return c, nil
	}
	return s, h, conns
}

func TestEventsReachHandlerInOrder(t *testing.T) {
	s, h, conns := testSupervisor(t)
	s.Start(context.Background())
	defer s.Stop()

	c := <-conns
	c.emit(protocol.Envelope{Type: "auth.qr"})
	c.emit(protocol.Envelope{Type: "chats.list"})
	c.emit(protocol.Envelope{Type: "message.new"})

	got := h.waitFor(t, 3)
	want := []string{"auth.qr", "chats.list", "message.new"}
	for i, w := range want {
		if got[i].Env.Type != w {
			t.Errorf("envelope[%d].Type = %q, want %q", i, got[i].Env.Type, w)
		}
		if got[i].Service != protocol.WhatsApp {
			t.Errorf("envelope[%d].Service = %s, want whatsapp", i, got[i].Service)
		}
	}
}

func TestSendReachesBridge(t *testing.T) {
	s, _, conns := testSupervisor(t)
	s.Start(context.Background())
	defer s.Stop()

	c := <-conns
	// The connect hook may race with Send; wait for the conn to be current.
	waitUntil(t, func() bool { return s.bridges[protocol.WhatsApp].current() != nil })

	if err := s.Send(context.Background(), protocol.WhatsApp, protocol.Envelope{Type: "status.get"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if c.sentCount() != 1 {
		t.Errorf("bridge received %d commands, want 1", c.sentCount())
	}
}

func TestSendToUnconfiguredService(t *testing.T) {
	s, _, _ := testSupervisor(t)
	err := s.Send(context.Background(), protocol.Telegram, protocol.Envelope{Type: "status.get"})
	if !errors.Is(err, ErrBridgeDown) {
		t.Errorf("error = %v, want ErrBridgeDown", err)
	}
}

func TestSendBeforeConnect(t *testing.T) {
	s, _, _ := testSupervisor(t)
	// Not started: no connection exists.
	err := s.Send(context.Background(), protocol.WhatsApp, protocol.Envelope{Type: "status.get"})
	if !errors.Is(err, ErrBridgeDown) {
		t.Errorf("error = %v, want ErrBridgeDown", err)
	}
}

func TestBridgeDeathSynthesizesDisconnectedAndRestarts(t *testing.T) {
	s, h, conns := testSupervisor(t)
	s.Start(context.Background())
	defer s.Stop()

	first := <-conns
	first.emit(protocol.Envelope{Type: "status"})
	first.die()

	// The synthetic status lands after the bridge's own events.
	got := h.waitFor(t, 2)
	if got[1].Env.Type != protocol.TypeStatus {
		t.Fatalf("envelope[1].Type = %q, want status", got[1].Env.Type)
	}
	var data protocol.StatusData
	if err := protocol.ParseData(got[1].Env, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != protocol.StatusDisconnected {
		t.Errorf("synthetic status = %q, want disconnected", data.Status)
	}

	// A replacement connection appears after the restart delay.
	select {
	case <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge was not restarted")
	}
}

func TestOnBridgeConnectHook(t *testing.T) {
	s, _, conns := testSupervisor(t)
	connected := make(chan protocol.ServiceID, 1)
	s.OnBridgeConnect(func(id protocol.ServiceID) { connected <- id })

	s.Start(context.Background())
	defer s.Stop()
	<-conns

	select {
	case id := <-connected:
		if id != protocol.WhatsApp {
			t.Errorf("connect hook for %s, want whatsapp", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect hook never fired")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
