package entities

// Pin modes.
const (
	PinDigital = 0
	PinAnalog  = 1
)

type Peripheral struct {
	DeviceOwned
	Pin   int    `json:"pin"`
	Label string `json:"label"`
	Mode  int    `json:"mode"`
}

type Sensor struct {
	DeviceOwned
	Pin   int    `json:"pin"`
	Label string `json:"label"`
	Mode  int    `json:"mode"`
}

// PinBinding runs a sequence or a special action when a pin goes high.
type PinBinding struct {
	DeviceOwned
	Pin           int    `json:"pin"`
	SequenceID    *uint  `gorm:"index" json:"sequence_id"`
	SpecialAction string `json:"special_action"`
	BindingType   string `json:"binding_type"` // standard | special
}
