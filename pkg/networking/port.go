// Package networking provides utilities for network operations,
// such as finding available ports and building HTTP clients.
package networking

import (
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"

	"github.com/datalayer/datalayer-go/pkg/logger"
)

// Local ports picked for the login callback server live in this range.
const (
	MinPort = 10000
	MaxPort = 65535
)

// randomProbes bounds the random phase before falling back to a sweep.
const randomProbes = 10

// IsAvailable reports whether a loopback port can be bound, on both TCP
// and UDP.
func IsAvailable(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	tcp, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	closeQuietly(tcp.Close)

	udp, err := net.ListenPacket("udp", addr)
	if err != nil {
		return false
	}
	closeQuietly(udp.Close)

	return true
}

func closeQuietly(close func() error) {
	if err := close(); err != nil {
		logger.Warnf("failed to close port probe: %v", err)
	}
}

// FindAvailable picks a free port in [MinPort, MaxPort]: a few random
// probes, then a linear sweep. Returns 0 when the whole range is taken.
func FindAvailable() int {
	for i := 0; i < randomProbes; i++ {
		port := MinPort + rand.IntN(MaxPort-MinPort+1)
		if IsAvailable(port) {
			return port
		}
	}
	for port := MinPort; port <= MaxPort; port++ {
		if IsAvailable(port) {
			return port
		}
	}
	return 0
}

// FindOrUsePort returns the requested port when it is free, or picks an
// alternative. A zero request always picks.
func FindOrUsePort(port int) (int, error) {
	if port != 0 && IsAvailable(port) {
		return port, nil
	}

	picked := FindAvailable()
	if picked == 0 {
		if port != 0 {
			return 0, fmt.Errorf("port %d is unavailable and no alternative could be found", port)
		}
		return 0, fmt.Errorf("could not find an available port")
	}
	return picked, nil
}
