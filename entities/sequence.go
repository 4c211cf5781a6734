package entities

import "gorm.io/datatypes"

type Sequence struct {
	DeviceOwned
	Name  string            `gorm:"not null" json:"name"`
	Color string            `json:"color"`
	Kind  string            `json:"kind"`
	Args  datatypes.JSONMap `json:"args"`
	Body  datatypes.JSON    `json:"body"`
}

// Regimen runs sequences at offsets from its start time.
type Regimen struct {
	DeviceOwned
	Name  string         `gorm:"not null" json:"name"`
	Color string         `json:"color"`
	Items datatypes.JSON `json:"regimen_items"`
}
