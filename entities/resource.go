package entities

import "time"

// Resource is any record scoped to a device.
type Resource interface {
	GetID() uint
	OwnerID() uint
	SetOwner(deviceID uint)
	Owned() *DeviceOwned
}

// Validator is implemented by resources with rules beyond column types.
// Validate reports the offending field with the error.
type Validator interface {
	Validate() (field string, err error)
}

// DeviceOwned carries the columns every device resource shares.
type DeviceOwned struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  uint      `gorm:"index;not null" json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o DeviceOwned) GetID() uint   { return o.ID }
func (o DeviceOwned) OwnerID() uint { return o.DeviceID }

func (o *DeviceOwned) SetOwner(deviceID uint) { o.DeviceID = deviceID }

// Owned exposes the shared columns of the embedding resource.
func (o *DeviceOwned) Owned() *DeviceOwned { return o }

// ResourceModels lists a zero value of every resource, for migrations.
func ResourceModels() []any {
	return []any{
		&FarmEvent{},
		&FarmwareInstallation{},
		&Image{},
		&Log{},
		&Peripheral{},
		&PinBinding{},
		&PlantTemplate{},
		&Point{},
		&Regimen{},
		&SavedGarden{},
		&Sensor{},
		&SensorReading{},
		&Sequence{},
		&WebcamFeed{},
	}
}
