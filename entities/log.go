package entities

// Log is a message emitted by the device.
type Log struct {
	DeviceOwned
	Message      string   `gorm:"not null" json:"message"`
	Type         string   `json:"type"` // info, success, busy, warn, error, fun, debug
	Verbosity    int      `json:"verbosity"`
	MajorVersion int      `json:"major_version"`
	MinorVersion int      `json:"minor_version"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	Z            *float64 `json:"z"`
}
