package entities

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Point pointer types.
const (
	GenericPointer = "GenericPointer"
	Plant          = "Plant"
	ToolSlot       = "ToolSlot"
)

// Point is a location in the garden. Deleting a point only discards it.
type Point struct {
	DeviceOwned
	Name        string            `json:"name"`
	PointerType string            `gorm:"index;not null" json:"pointer_type"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Z           float64           `json:"z"`
	Radius      float64           `json:"radius"`
	Meta        datatypes.JSONMap `json:"meta"`

	// Plant
	OpenfarmSlug string `json:"openfarm_slug"`
	PlantStage   string `json:"plant_stage"`

	// ToolSlot
	ToolID           *uint `json:"tool_id"`
	PulloutDirection int   `json:"pullout_direction"`

	DiscardedAt gorm.DeletedAt `gorm:"column:discarded_at;index" json:"discarded_at,omitempty"`
}

func (p *Point) BeforeCreate(tx *gorm.DB) (err error) {
	if p.PointerType == "" {
		p.PointerType = GenericPointer
	}
	return
}

type SavedGarden struct {
	DeviceOwned
	Name string `json:"name"`
}

// PlantTemplate is a plant stored in a saved garden, not yet planted.
type PlantTemplate struct {
	DeviceOwned
	SavedGardenID uint    `gorm:"index" json:"saved_garden_id"`
	Name          string  `json:"name"`
	OpenfarmSlug  string  `json:"openfarm_slug"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Radius        float64 `json:"radius"`
}

func (p *Point) Validate() (string, error) {
	switch p.PointerType {
	case "", GenericPointer, Plant, ToolSlot:
		return "", nil
	}
	return "pointer_type", fmt.Errorf("%q is not a valid pointer type", p.PointerType)
}
