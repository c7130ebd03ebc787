package chunkwire

import "github.com/richgrov/chunkwire/version"

// Receiver of chunk packets, typically a player connection owned by the
// transport. Implementations must be comparable, so pointer receivers are
// the norm.
type Viewer interface {
	// Protocol version negotiated with the client
	ProtocolVersion() version.Version
	// Writes a chunk data payload. The slice is shared with every other
	// viewer on the same version and must not be modified.
	WritePacket(payload []byte) error
}
