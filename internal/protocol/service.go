package protocol

import "fmt"

// ServiceID identifies one configured messaging platform connection.
// The set is closed: adding a service means adding a constant here and a
// bridge entry in the config, never runtime data.
type ServiceID uint8

const (
	WhatsApp ServiceID = iota
	Telegram

	serviceCount
)

var serviceNames = [serviceCount]string{
	WhatsApp: "whatsapp",
	Telegram: "telegram",
}

var serviceDisplayNames = [serviceCount]string{
	WhatsApp: "WhatsApp",
	Telegram: "Telegram",
}

// String returns the wire/config name of the service.
func (s ServiceID) String() string {
	if s >= serviceCount {
		return fmt.Sprintf("service(%d)", uint8(s))
	}
	return serviceNames[s]
}

// Display returns the user-facing name of the service.
func (s ServiceID) Display() string {
	if s >= serviceCount {
		return s.String()
	}
	return serviceDisplayNames[s]
}

// Valid reports whether s is a member of the closed service set.
func (s ServiceID) Valid() bool {
	return s < serviceCount
}

// ParseServiceID resolves a wire/config name to a ServiceID.
func ParseServiceID(name string) (ServiceID, error) {
	for id, n := range serviceNames {
		if n == name {
			return ServiceID(id), nil
		}
	}
	return 0, fmt.Errorf("unknown service %q", name)
}

// Services returns all configured service identifiers in declaration order.
func Services() []ServiceID {
	out := make([]ServiceID, serviceCount)
	for i := range out {
		out[i] = ServiceID(i)
	}
	return out
}

// NumServices is the size of the closed service set, usable as a fixed
// array length for per-service state.
const NumServices = int(serviceCount)
