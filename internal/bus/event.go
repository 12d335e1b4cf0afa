package bus

import (
	"time"

	"github.com/aigustalabs/switchboard/internal/protocol"
)

// Event represents a view-state change published on the bus. Service
// identifies the slice that changed so a subscriber can re-query exactly
// that slice instead of the whole view.
type Event struct {
	Kind      string
	Service   protocol.ServiceID
	Timestamp time.Time
	Payload   any
}
