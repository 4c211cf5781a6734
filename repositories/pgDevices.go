package repositories

import (
	"errors"

	"farmbot-server/db"
	"farmbot-server/entities"

	"gorm.io/gorm"
)

type devicePgRepository struct {
	db db.Database
}

func NewDevicePgRepository(database db.Database) DeviceRepository {
	return &devicePgRepository{db: database}
}

func (r *devicePgRepository) Create(device *entities.Device) error {
	return r.db.GetDB().Create(device).Error
}

func (r *devicePgRepository) GetByID(id uint) (*entities.Device, error) {
	var device entities.Device
	err := r.db.GetDB().Where("id = ?", id).First(&device).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *devicePgRepository) Update(device *entities.Device) error {
	return r.db.GetDB().Save(device).Error
}

// Delete removes the device together with its users and every resource it owns.
func (r *devicePgRepository) Delete(id uint) error {
	return r.db.GetDB().Transaction(func(tx *gorm.DB) error {
		for _, m := range entities.ResourceModels() {
			if err := tx.Unscoped().Where("device_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("device_id = ?", id).Delete(&entities.Command{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id = ?", id).Delete(&entities.User{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Device{}).Error
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
