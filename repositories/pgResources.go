package repositories

import (
	"farmbot-server/db"
	"farmbot-server/entities"
)

type resourcePgRepository struct {
	db db.Database
}

func NewResourcePgRepository(database db.Database) ResourceRepository {
	return &resourcePgRepository{db: database}
}

// FindByID loads the row with id into model regardless of its owner.
func (r *resourcePgRepository) FindByID(model entities.Resource, id uint) error {
	return notFound(r.db.GetDB().Where("id = ?", id).First(model).Error)
}

func (r *resourcePgRepository) FindOwned(model entities.Resource, deviceID, id uint) error {
	return notFound(r.db.GetDB().Where("id = ? AND device_id = ?", id, deviceID).First(model).Error)
}

func (r *resourcePgRepository) ListByDevice(out any, deviceID uint) error {
	return r.db.GetDB().Where("device_id = ?", deviceID).Order("id ASC").Find(out).Error
}

func (r *resourcePgRepository) Create(model entities.Resource) error {
	return r.db.GetDB().Create(model).Error
}

func (r *resourcePgRepository) CreateBatch(models any) error {
	return r.db.GetDB().CreateInBatches(models, 100).Error
}

// UpdateOwned writes every column of model except its identity, and only
// while the row with model's id still belongs to deviceID.
func (r *resourcePgRepository) UpdateOwned(model entities.Resource, deviceID uint) error {
	if model.GetID() == 0 {
		return ErrNotFound
	}
	res := r.db.GetDB().Model(model).
		Where("id = ? AND device_id = ?", model.GetID(), deviceID).
		Select("*").
		Omit("id", "device_id", "created_at", "discarded_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes model by primary key. Models with a gorm.DeletedAt column are only discarded.
func (r *resourcePgRepository) Delete(model entities.Resource) error {
	return r.db.GetDB().Delete(model).Error
}

func (r *resourcePgRepository) Count(model any, query string, args ...any) (int64, error) {
	var n int64
	q := r.db.GetDB().Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}
