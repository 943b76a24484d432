package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Router is a router found via mDNS
type Router struct {
	// Instance is the advertised service name (e.g., "FRITZ!Box 3490")
	Instance string

	// Hostname is the mDNS hostname (e.g., "fritz.box.local.")
	Hostname string

	// Model is the product number parsed from the instance name, if any
	Model string

	IP   string
	Port int

	// Metadata holds the TXT records
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a one-line description
func (r *Router) String() string {
	name := r.Instance
	if name == "" {
		name = r.Hostname
	}
	return fmt.Sprintf("%s at %s", name, r.Address())
}

// Address returns the value to pass as the device address: the IP, with
// the port appended when it is not 80.
func (r *Router) Address() string {
	if r.Port == 0 || r.Port == DefaultPort {
		return r.IP
	}
	return net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
}
