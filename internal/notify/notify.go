// Package notify defines the notification sink collaborator contract.
// Delivery is fire-and-forget: no return value, no confirmation.
package notify

import (
	"time"

	"github.com/aigustalabs/switchboard/internal/bus"
	"go.uber.org/zap"
)

// Notification is a user-facing alert request.
type Notification struct {
	Title string
	Body  string
}

// Notifier accepts notification requests.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to the log. Used headless and as the
// daemon default when no OS sink is wired.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(n Notification) {
	l.logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
}

// BusNotifier publishes notification requests on the bus so a presentation
// layer can forward them to the OS.
type BusNotifier struct {
	bus *bus.Bus
}

// KindNotification is the bus kind for notification requests.
const KindNotification = "notify.requested"

// NewBusNotifier creates a bus-backed notifier.
func NewBusNotifier(b *bus.Bus) *BusNotifier {
	return &BusNotifier{bus: b}
}

// Notify publishes the notification on the bus.
func (bn *BusNotifier) Notify(n Notification) {
	bn.bus.Publish(bus.Event{
		Kind:      KindNotification,
		Timestamp: time.Now(),
		Payload:   n,
	})
}

type multiNotifier []Notifier

// Multi fans each notification out to every sink.
func Multi(sinks ...Notifier) Notifier {
	return multiNotifier(sinks)
}

func (m multiNotifier) Notify(n Notification) {
	for _, sink := range m {
		sink.Notify(n)
	}
}
