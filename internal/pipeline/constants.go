package pipeline

// Default values for message ingestion.
const (
	// DefaultSender is recorded when a message arrives without an originating address.
	DefaultSender = "UNKNOWN"

	// maxLoggedBodyLen caps how much of a message body goes into log lines.
	maxLoggedBodyLen = 160
)
