package usecases

import (
	"path/filepath"
	"sync"
	"testing"

	"farmbot-server/db"
	"farmbot-server/entities"
	"farmbot-server/repositories"

	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) db.Database {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	return database
}

func newDevice(t *testing.T, database db.Database) *entities.Device {
	t.Helper()
	d := &entities.Device{}
	require.NoError(t, repositories.NewDevicePgRepository(database).Create(d))
	return d
}

type recordedSync struct {
	deviceID uint
	kind     string
	id       uint
	label    string
}

type recorder struct {
	mu    sync.Mutex
	calls []recordedSync
}

func (r *recorder) AutoSync(deviceID uint, kind string, id uint, body any, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedSync{deviceID: deviceID, kind: kind, id: id, label: label})
}
