package ir

// Version constants for the wire format and the toolkit.
const (
	// QobjVersion is the wire format version written into every job.
	QobjVersion = "1.3.0"

	// ToolkitVersion is the pulsekit release version.
	ToolkitVersion = "0.1.0"
)
