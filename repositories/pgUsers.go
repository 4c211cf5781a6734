package repositories

import (
	"strings"

	"farmbot-server/db"
	"farmbot-server/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(user *entities.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.GetDB().Create(user).Error
}

func (r *userPgRepository) GetByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userPgRepository) GetByDeviceID(deviceID uint) ([]entities.User, error) {
	var users []entities.User
	err := r.db.GetDB().Where("device_id = ?", deviceID).Order("id ASC").Find(&users).Error
	return users, err
}
