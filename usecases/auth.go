package usecases

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"farmbot-server/db"
	"farmbot-server/entities"
	"farmbot-server/repositories"

	"github.com/dgrijalva/jwt-go"
	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Claims are the identity carried by a session token.
type Claims struct {
	UserID   uint
	DeviceID uint
}

type AuthUseCase struct {
	db     db.Database
	secret []byte
	ttl    time.Duration
}

func NewAuthUseCase(database db.Database, secret string, ttl time.Duration) *AuthUseCase {
	return &AuthUseCase{db: database, secret: []byte(secret), ttl: ttl}
}

// Register creates a user and the device it controls.
func (uc *AuthUseCase) Register(email, password, name string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, invalid("email", "is invalid")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *entities.User
	err = db.Transaction(uc.db, func(tx db.Database) error {
		users := repositories.NewUserPgRepository(tx)
		if _, err := users.GetByEmail(email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		device := &entities.Device{}
		if err := repositories.NewDevicePgRepository(tx).Create(device); err != nil {
			return err
		}
		user = &entities.User{DeviceID: device.ID, Name: name, Email: email, PasswordHash: string(hash)}
		return users.Create(user)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] registered user %d with device %d", user.ID, user.DeviceID)
	return user, nil
}

// Login checks the credentials and returns a signed token.
func (uc *AuthUseCase) Login(email, password string) (string, *entities.User, error) {
	user, err := repositories.NewUserPgRepository(uc.db).GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   user.ID,
		"device_id": user.DeviceID,
		"exp":       time.Now().Add(uc.ttl).Unix(),
	})
	signed, err := token.SignedString(uc.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, user, nil
}

// ParseToken verifies signature and expiry.
func (uc *AuthUseCase) ParseToken(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrUnauthorized
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrUnauthorized
	}
	userID, _ := mc["user_id"].(float64)
	deviceID, _ := mc["device_id"].(float64)
	if deviceID == 0 {
		return Claims{}, ErrUnauthorized
	}
	return Claims{UserID: uint(userID), DeviceID: uint(deviceID)}, nil
}
