package entities

import (
	"time"

	"gorm.io/gorm"
)

// Device is a FarmBot controller. Every resource belongs to exactly one device.
type Device struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`

	// values reported by FarmBot OS
	FbosVersion     string     `json:"fbos_version"`
	FbosCommit      string     `json:"fbos_commit"`
	CurrentlyOnBeta bool       `json:"currently_on_beta"`
	LastSawAPI      *time.Time `json:"last_saw_api"`

	// FarmBot OS config
	BetaOptIn bool `json:"beta_opt_in"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) (err error) {
	if d.Name == "" {
		d.Name = "Farmbot"
	}
	if d.Timezone == "" {
		d.Timezone = "UTC"
	}
	return
}
