package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// probeTarget is only used to pick a route; UDP "connect" sends nothing
const probeTarget = "8.8.8.8:53"

// ErrNoAddress is returned when no usable local address is found
var ErrNoAddress = errors.New("no IP found")

// LocalAddress returns the IPv4 address the machine is known by: the first
// non-loopback address of its hostname, else the source address of the
// default route.
func LocalAddress() (string, error) {
	if host, err := os.Hostname(); err == nil {
		if ips, err := net.LookupIP(host); err == nil {
			if ip := firstUsable(ips); ip != nil {
				return ip.String(), nil
			}
		}
	}
	return routeAddress()
}

func routeAddress() (string, error) {
	conn, err := net.Dial("udp", probeTarget)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	defer func() { _ = conn.Close() }()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsUnspecified() {
		return "", ErrNoAddress
	}
	return addr.IP.String(), nil
}

// firstUsable returns the first IPv4 address that is not loopback
func firstUsable(ips []net.IP) net.IP {
	for _, ip := range ips {
		v4 := ip.To4()
		if v4 == nil || v4.IsLoopback() || v4.IsUnspecified() {
			continue
		}
		return v4
	}
	return nil
}

// InterfaceAddress is one address of a local network interface
type InterfaceAddress struct {
	Interface string
	Network   *net.IPNet
}

// Contains reports whether target is inside this interface's subnet
func (a InterfaceAddress) Contains(target net.IP) bool {
	return a.Network != nil && a.Network.Contains(target)
}

// InterfaceAddresses lists the IPv4 addresses of all up, non-loopback interfaces
func InterfaceAddresses() ([]InterfaceAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var out []InterfaceAddress
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, ipv4Networks(iface.Name, addrs)...)
	}
	return out, nil
}

func ipv4Networks(name string, addrs []net.Addr) []InterfaceAddress {
	var out []InterfaceAddress
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil {
			continue
		}
		out = append(out, InterfaceAddress{Interface: name, Network: ipNet})
	}
	return out
}

// ReachableFrom returns the local addresses whose subnet contains target
func ReachableFrom(addrs []InterfaceAddress, target net.IP) []InterfaceAddress {
	var out []InterfaceAddress
	for _, a := range addrs {
		if a.Contains(target) {
			out = append(out, a)
		}
	}
	return out
}
