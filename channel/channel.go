// Package channel derives the names of the synchronization primitives and
// transport endpoints associated with a logical channel. All derivations are
// pure: two processes naming the same channel always derive the same names,
// and names for distinct channels never collide in practice.
package channel

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
)

const (
	clientMutexPrefix = "tether-client-"
	serverMutexPrefix = "tether-server-"
	socketPrefix      = "tether-"
	pipePrefix        = `\\.\pipe\tether-`

	// digestLen keeps socket paths well under the sun_path limit.
	digestLen = 24
)

// ErrEmptyChannelID indicates a caller bug: every channel must be named.
var ErrEmptyChannelID = errors.New("empty channel ID")

// NamePair holds the two mutex names derived from one channel ID.
// ClientMutex serializes the launch decision among concurrently starting
// clients; ServerMutex is held by a live worker and probed by clients.
type NamePair struct {
	ClientMutex string
	ServerMutex string
}

func digest(channelID string) string {
	sum := sha256.Sum256([]byte(channelID))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// Names derives the mutex name pair for a channel.
// The derivation is deterministic and does no I/O.
func Names(channelID string) (NamePair, error) {
	if channelID == "" {
		return NamePair{}, ErrEmptyChannelID
	}
	d := digest(channelID)
	return NamePair{
		ClientMutex: clientMutexPrefix + d,
		ServerMutex: serverMutexPrefix + d,
	}, nil
}

// SocketPath derives the Unix socket path for a channel under dir.
func SocketPath(dir, channelID string) string {
	return filepath.Join(dir, fmt.Sprintf("%s%s.sock", socketPrefix, digest(channelID)))
}

// PipeName derives the Windows named-pipe path for a channel.
func PipeName(channelID string) string {
	return pipePrefix + digest(channelID)
}
