package repositories

import (
	"errors"

	"farmbot-server/entities"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type DeviceRepository interface {
	Create(device *entities.Device) error
	GetByID(id uint) (*entities.Device, error)
	Update(device *entities.Device) error
	Delete(id uint) error
}

type UserRepository interface {
	Create(user *entities.User) error
	GetByEmail(email string) (*entities.User, error)
	GetByDeviceID(deviceID uint) ([]entities.User, error)
}

// ResourceRepository works on any device resource; callers pass a model pointer.
type ResourceRepository interface {
	FindByID(model entities.Resource, id uint) error
	FindOwned(model entities.Resource, deviceID, id uint) error
	ListByDevice(out any, deviceID uint) error
	Create(model entities.Resource) error
	CreateBatch(models any) error
	UpdateOwned(model entities.Resource, deviceID uint) error
	Delete(model entities.Resource) error
	Count(model any, query string, args ...any) (int64, error)
}

type CommandRepository interface {
	Enqueue(cmd *entities.Command) error
	GetPendingByDeviceID(deviceID uint, limit int) ([]entities.Command, error)
	MarkSent(ids []string) error
	UpdateStatus(deviceID uint, id, status, response string) error
}
