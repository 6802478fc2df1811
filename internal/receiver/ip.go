package receiver

import (
	"fmt"
	"net"
)

// LocalIPv4s returns the non-loopback IPv4 addresses of this host.
// When listening on a wildcard address these are the ones a remote OSC sender can target.
func LocalIPv4s() ([]net.IP, error) {
	address, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}

	var ips []net.IP
	for _, addr := range address {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		ips = append(ips, ip)
	}
	return ips, nil
}

func isWildcard(addr *net.UDPAddr) bool {
	return addr.IP == nil || addr.IP.IsUnspecified()
}
