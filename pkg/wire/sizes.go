package wire

// Revision is the protocol revision this layout implements. Peers
// exchange it out-of-band (gateway meta record) so a mismatch is
// caught at attach time, never by misparse.
const Revision = 2

// Encoded sizes in bytes. The *Bytes constants are upper bounds a
// caller can size buffers with; Min constants are the smallest legal
// encodings (all subsystems absent).
const (
	MockloopSetpointBytes = 4 * 4
	HeartSetpointBytes    = 3 * 4

	SetpointMinBytes = 2
	SetpointBytes    = SetpointMinBytes + MockloopSetpointBytes + HeartSetpointBytes

	MeasurementsBytes = 8 + 7*4

	ReportMinBytes = SetpointMinBytes + 1 + MeasurementsBytes
	ReportBytes    = SetpointBytes + 1 + MeasurementsBytes
)
