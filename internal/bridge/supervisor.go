// Package bridge supervises the per-service bridge connections: it spawns
// (or dials) each configured bridge, pumps its event stream into the
// dispatcher in delivery order, writes outbound commands to it, and
// restarts it when it dies.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"go.uber.org/zap"
)

// Transport kinds accepted in the service config.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// restartDelay is the pause before re-spawning a dead bridge.
const restartDelay = 5 * time.Second

// eventBuffer sizes the per-service ordered event queue.
const eventBuffer = 256

// ErrBridgeDown is returned when a command is sent to a service whose
// bridge is not currently running.
var ErrBridgeDown = errors.New("bridge not running")

// ServiceConfig describes how to reach one service's bridge.
type ServiceConfig struct {
	Enabled   bool
	Transport string // TransportStdio or TransportWebSocket
	Command   string // sidecar binary (stdio)
	Args      []string
	URL       string // bridge endpoint (websocket)
}

// Handler consumes inbound envelopes for a service.
type Handler interface {
	OnEnvelope(service protocol.ServiceID, env protocol.Envelope)
}

// conn is one live bridge connection.
type conn interface {
	send(env protocol.Envelope) error
	read() (protocol.Envelope, error)
	close()
}

type bridgeState struct {
	service protocol.ServiceID
	cfg     ServiceConfig
	events  chan protocol.Envelope

	mu   sync.Mutex
	conn conn
}

func (st *bridgeState) setConn(c conn) {
	st.mu.Lock()
	st.conn = c
	st.mu.Unlock()
}

func (st *bridgeState) current() conn {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.conn
}

// Supervisor owns every configured bridge connection. It implements the
// gateway's Transport.
type Supervisor struct {
	handler   Handler
	logger    *zap.Logger
	bridges   [protocol.NumServices]*bridgeState
	connect   func(ctx context.Context, st *bridgeState) (conn, error)
	onConnect func(service protocol.ServiceID)
	restart   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor for the configured services. Services
// absent from cfgs (or not enabled) are left alone; sending to them fails
// with ErrBridgeDown.
func NewSupervisor(cfgs map[protocol.ServiceID]ServiceConfig, h Handler, logger *zap.Logger) *Supervisor {
	s := &Supervisor{handler: h, logger: logger, restart: restartDelay}
	s.connect = s.dial
	for _, id := range protocol.Services() {
		cfg, ok := cfgs[id]
		if !ok || !cfg.Enabled {
			continue
		}
		s.bridges[id] = &bridgeState{
			service: id,
			cfg:     cfg,
			events:  make(chan protocol.Envelope, eventBuffer),
		}
	}
	return s
}

// OnBridgeConnect registers a hook called after a bridge (re)connects.
// Must be set before Start.
func (s *Supervisor) OnBridgeConnect(fn func(service protocol.ServiceID)) {
	s.onConnect = fn
}

// Start launches, per enabled service, the supervision loop and the single
// consumer draining that service's ordered event queue. Envelopes for one
// service reach the handler in delivery order; no ordering holds across
// services.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, st := range s.bridges {
		if st == nil {
			continue
		}
		s.wg.Add(2)
		go func(st *bridgeState) {
			defer s.wg.Done()
			s.supervise(ctx, st)
		}(st)
		go func(st *bridgeState) {
			defer s.wg.Done()
			s.consume(ctx, st)
		}(st)
	}
}

// Stop tears down all bridges and waits for the loops to exit.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Send writes a command envelope to the service's bridge. Implements
// gateway.Transport.
func (s *Supervisor) Send(_ context.Context, service protocol.ServiceID, env protocol.Envelope) error {
	st := s.bridges[service]
	if st == nil {
		return fmt.Errorf("%w: %s is not configured", ErrBridgeDown, service)
	}
	c := st.current()
	if c == nil {
		return fmt.Errorf("%w: %s", ErrBridgeDown, service)
	}
	return c.send(env)
}

func (s *Supervisor) supervise(ctx context.Context, st *bridgeState) {
	for {
		c, err := s.connect(ctx, st)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("bridge connect failed",
				zap.String("service", st.service.String()),
				zap.Error(err),
			)
			if !sleepCtx(ctx, s.restart) {
				return
			}
			continue
		}

		st.setConn(c)
		s.logger.Info("bridge connected", zap.String("service", st.service.String()))
		if s.onConnect != nil {
			s.onConnect(st.service)
		}

		err = s.pump(ctx, st, c)
		st.setConn(nil)
		c.close()
		if ctx.Err() != nil {
			return
		}

		if errors.Is(err, io.EOF) {
			s.logger.Warn("bridge exited", zap.String("service", st.service.String()))
		} else {
			s.logger.Warn("bridge stream failed",
				zap.String("service", st.service.String()),
				zap.Error(err),
			)
		}

		// The dead bridge cannot report its own death; synthesize the
		// status event so the service's slice degrades visibly.
		select {
		case st.events <- disconnectedEnvelope():
		case <-ctx.Done():
			return
		}

		if !sleepCtx(ctx, s.restart) {
			return
		}
	}
}

// pump moves envelopes from the connection into the service's ordered
// queue until the stream ends.
func (s *Supervisor) pump(ctx context.Context, st *bridgeState, c conn) error {
	for {
		env, err := c.read()
		if err != nil {
			return err
		}
		select {
		case st.events <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Supervisor) consume(ctx context.Context, st *bridgeState) {
	for {
		select {
		case env := <-st.events:
			s.handler.OnEnvelope(st.service, env)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) dial(ctx context.Context, st *bridgeState) (conn, error) {
	switch st.cfg.Transport {
	case TransportWebSocket:
		return dialWS(ctx, st.cfg.URL)
	case TransportStdio, "":
		return spawnStdio(ctx, st.service, st.cfg, s.logger)
	default:
		return nil, fmt.Errorf("unknown transport %q for %s", st.cfg.Transport, st.service)
	}
}

func disconnectedEnvelope() protocol.Envelope {
	data, _ := json.Marshal(protocol.StatusData{Status: protocol.StatusDisconnected})
	return protocol.Envelope{Type: protocol.TypeStatus, Data: data}
}

// sleepCtx waits for d, returning false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
