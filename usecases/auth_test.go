package usecases

import (
	"testing"
	"time"

	"farmbot-server/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthUseCase_RegisterAndLogin(t *testing.T) {
	database := testDB(t)
	uc := NewAuthUseCase(database, "secret", time.Hour)

	user, err := uc.Register("Grower@Example.com", "password123", "Grower")
	require.NoError(t, err)
	assert.NotZero(t, user.DeviceID)
	assert.Equal(t, "grower@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	device, err := repositories.NewDevicePgRepository(database).GetByID(user.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, "Farmbot", device.Name)

	token, logged, err := uc.Login("grower@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := uc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.DeviceID, claims.DeviceID)
}

func TestAuthUseCase_RegisterValidation(t *testing.T) {
	uc := NewAuthUseCase(testDB(t), "secret", time.Hour)

	_, err := uc.Register("nope", "password123", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = uc.Register("a@b.c", "short", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = uc.Register("a@b.c", "password123", "")
	require.NoError(t, err)
	_, err = uc.Register("A@B.C", "password123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthUseCase_LoginFailures(t *testing.T) {
	uc := NewAuthUseCase(testDB(t), "secret", time.Hour)
	_, err := uc.Register("a@b.c", "password123", "")
	require.NoError(t, err)

	_, _, err = uc.Login("a@b.c", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = uc.Login("missing@b.c", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthUseCase_ParseToken(t *testing.T) {
	database := testDB(t)
	uc := NewAuthUseCase(database, "secret", time.Hour)
	_, err := uc.Register("a@b.c", "password123", "")
	require.NoError(t, err)
	token, _, err := uc.Login("a@b.c", "password123")
	require.NoError(t, err)

	other := NewAuthUseCase(database, "other-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	expired := NewAuthUseCase(database, "secret", -time.Minute)
	old, _, err := expired.Login("a@b.c", "password123")
	require.NoError(t, err)
	_, err = uc.ParseToken(old)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = uc.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
