package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CommandPending = "pending"
	CommandSent    = "sent"
	CommandOK      = "ok"
	CommandError   = "error"
)

// Command is an RPC request queued for a device, e.g. check_update.
type Command struct {
	ID        string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DeviceID  uint              `json:"device_id" gorm:"index"`
	Kind      string            `json:"kind" gorm:"type:varchar(128)"`
	Args      datatypes.JSONMap `json:"args"`
	Status    string            `json:"status" gorm:"type:varchar(32);index"`
	Response  string            `json:"response"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (c *Command) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CommandPending
	}
	return nil
}
