package link

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// JoinAddr returns address with defaultPort appended when address carries no port.
func JoinAddr(address string, defaultPort int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}

	host := strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")

	return net.JoinHostPort(host, strconv.Itoa(defaultPort))
}

// ResolveUDP resolves host:port into a UDP address.
// Failures wrap ErrAddressResolution.
func ResolveUDP(host string, port int) (*net.UDPAddr, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("link: %w: %s: %w", ErrAddressResolution, addr, err)
	}

	return udpAddr, nil
}

// Resolve resolves address for network ("udp", "udp4", "udp6", "tcp", "tcp4" or "tcp6").
// Failures wrap ErrAddressResolution.
func Resolve(network, address string) (net.Addr, error) {
	var (
		addr net.Addr
		err  error
	)

	switch network {
	case "udp", "udp4", "udp6":
		addr, err = net.ResolveUDPAddr(network, address)
	case "tcp", "tcp4", "tcp6":
		addr, err = net.ResolveTCPAddr(network, address)
	default:
		return nil, fmt.Errorf("link: %w: unsupported network %q", ErrAddressResolution, network)
	}
	if err != nil {
		return nil, fmt.Errorf("link: %w: %s: %w", ErrAddressResolution, address, err)
	}

	return addr, nil
}

// IsDatagram returns if network is a datagram network.
func IsDatagram(network string) bool {
	return strings.HasPrefix(network, "udp")
}
