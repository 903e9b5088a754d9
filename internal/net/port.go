// Package net holds small networking helpers.
package net

import (
	"fmt"
	"net"
)

// GetEphemeralTCPPort asks the kernel for a currently free TCP port.
// The port is released before returning, so a race with another process is
// possible but unlikely; the Docker launcher binds it immediately after.
func GetEphemeralTCPPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("resolving localhost:0: %w", err)
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listening to acquire port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
