package entities

import "time"

type SensorReading struct {
	DeviceOwned
	Pin    int       `json:"pin"`
	Mode   int       `json:"mode"`
	Value  float64   `json:"value"`
	X      *float64  `json:"x"`
	Y      *float64  `json:"y"`
	Z      *float64  `json:"z"`
	ReadAt time.Time `json:"read_at"`
}
