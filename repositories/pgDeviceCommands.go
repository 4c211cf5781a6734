package repositories

import (
	"encoding/json"

	"farmbot-server/db"
	"farmbot-server/entities"
)

type commandPgRepository struct {
	db db.Database
}

func NewCommandPgRepository(database db.Database) CommandRepository {
	return &commandPgRepository{db: database}
}

func (r *commandPgRepository) Enqueue(cmd *entities.Command) error {
	return r.db.GetDB().Create(cmd).Error
}

func (r *commandPgRepository) GetPendingByDeviceID(deviceID uint, limit int) ([]entities.Command, error) {
	if limit <= 0 {
		limit = 10
	}
	var cmds []entities.Command
	err := r.db.GetDB().Where("device_id = ? AND status = ?", deviceID, entities.CommandPending).
		Order("created_at ASC").Limit(limit).Find(&cmds).Error
	return cmds, err
}

func (r *commandPgRepository) MarkSent(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.GetDB().Model(&entities.Command{}).Where("id IN ?", ids).
		Update("status", entities.CommandSent).Error
}

// UpdateStatus sets the final status of a device's command. Unknown ids are reported as ErrNotFound.
func (r *commandPgRepository) UpdateStatus(deviceID uint, id, status, response string) error {
	updates := map[string]interface{}{"status": status}
	if response != "" {
		// ensure json string
		if !json.Valid([]byte(response)) {
			b, _ := json.Marshal(map[string]string{"message": response})
			response = string(b)
		}
		updates["response"] = response
	}
	res := r.db.GetDB().Model(&entities.Command{}).Where("id = ? AND device_id = ?", id, deviceID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
