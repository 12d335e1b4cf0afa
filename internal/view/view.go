// Package view owns the reconciled client state: per-service runtime
// state, chat directories, and message timelines. All mutation goes
// through the exported operations; readers get copies and are notified of
// changes over the bus. State is partitioned by service; no operation
// touches more than one service's slice.
package view

import (
	"sync"
	"time"

	"github.com/aigustalabs/switchboard/internal/auth"
	"github.com/aigustalabs/switchboard/internal/bus"
	"github.com/aigustalabs/switchboard/internal/protocol"
)

// Bus event kinds published on view mutations.
const (
	KindStatusChanged   = "service.status_changed"
	KindAuthChanged     = "service.auth_changed"
	KindChatsUpdated    = "chats.updated"
	KindTimelineUpdated = "timeline.updated"
)

// ServiceState is the externally visible runtime state of one service.
type ServiceState struct {
	Status string // protocol.Status* values
	Auth   auth.State
}

type serviceSlot struct {
	status  string
	machine *auth.Machine
	chats   []protocol.Chat
}

type timelineKey struct {
	service protocol.ServiceID
	chatID  string
}

// View is the state container. Service slots are a fixed-arity array over
// the closed ServiceID set, so "service X has no state" cannot happen.
type View struct {
	mu        sync.RWMutex
	services  [protocol.NumServices]serviceSlot
	timelines map[timelineKey][]protocol.Message
	bus       *bus.Bus
}

// New creates a view with every service disconnected and idle.
func New(b *bus.Bus) *View {
	v := &View{
		timelines: make(map[timelineKey][]protocol.Message),
		bus:       b,
	}
	for i := range v.services {
		v.services[i] = serviceSlot{
			status:  protocol.StatusDisconnected,
			machine: auth.NewMachine(),
		}
	}
	return v
}

// Service returns a copy of one service's runtime state.
func (v *View) Service(id protocol.ServiceID) ServiceState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	slot := &v.services[id]
	return ServiceState{Status: slot.status, Auth: slot.machine.Current()}
}

// SetStatus applies a status event: the connection status is replaced and,
// when a previously authenticated service reports auth_needed, the auth
// machine resets to idle (session invalidated, re-authentication
// required). An auth_needed status during an in-flight auth flow keeps
// the flow's progress.
func (v *View) SetStatus(id protocol.ServiceID, status string) {
	v.mu.Lock()
	slot := &v.services[id]
	slot.status = status
	authReset := false
	if status == protocol.StatusAuthNeeded && slot.machine.Current().Step == auth.StepAuthenticated {
		slot.machine.Reset()
		authReset = true
	}
	v.mu.Unlock()

	v.publish(KindStatusChanged, id, status)
	if authReset {
		v.publish(KindAuthChanged, id, auth.Idle())
	}
}

// ApplyAuth advances one service's auth machine. Every auth-progress
// transition marks the connection auth_needed except reaching
// authenticated, which marks it connected. An event with no legal edge is
// rejected and nothing changes.
func (v *View) ApplyAuth(id protocol.ServiceID, next auth.State) error {
	v.mu.Lock()
	slot := &v.services[id]
	if err := slot.machine.Apply(next); err != nil {
		v.mu.Unlock()
		return err
	}
	if next.Step == auth.StepAuthenticated {
		slot.status = protocol.StatusConnected
	} else {
		slot.status = protocol.StatusAuthNeeded
	}
	status := slot.status
	v.mu.Unlock()

	v.publish(KindAuthChanged, id, next)
	v.publish(KindStatusChanged, id, status)
	return nil
}

func (v *View) publish(kind string, id protocol.ServiceID, payload any) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(bus.Event{
		Kind:      kind,
		Service:   id,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
