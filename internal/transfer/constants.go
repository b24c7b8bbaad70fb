package transfer

import "time"

const (
	// ChannelLabel names the single data channel both peers use.
	ChannelLabel = "p2p-data-channel"

	// ChunkSize is the default payload size of one binary file message.
	ChunkSize = 16000

	// ReceivedPrefix is prepended to every saved file name.
	ReceivedPrefix = "received_"

	// PartialSuffix marks the journal written next to an incomplete file.
	PartialSuffix = ".partial"
)

// Control envelope types
const (
	MessageTypeFileMeta  = "file_meta"
	MessageTypeKeepAlive = "keepalive"
)

// Chat conventions
const (
	ByeSentinel     = "bye"
	DepartureNotice = "Peer has left the chat."
)

const progressInterval = 100 * time.Millisecond

// TransferOptions controls where inbound files land.
type TransferOptions struct {
	OutputDir string
}
