package entities

import (
	"time"

	"gorm.io/datatypes"
)

type Image struct {
	DeviceOwned
	AttachmentURL         string            `json:"attachment_url"`
	AttachmentProcessedAt *time.Time        `json:"attachment_processed_at"`
	Meta                  datatypes.JSONMap `json:"meta"`
}
